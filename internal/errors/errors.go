package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeInvalidInput        ErrCode = "INVALID_INPUT"
	ErrCodeNotFound            ErrCode = "NOT_FOUND"
	ErrCodeRateLimited         ErrCode = "RATE_LIMITED"
	ErrCodeTransport           ErrCode = "TRANSPORT_ERROR"
	ErrCodeFetchFailed         ErrCode = "FETCH_FAILED"
	ErrCodeCredentialsRequired ErrCode = "CREDENTIALS_REQUIRED"
	ErrCodePending             ErrCode = "PENDING"
	ErrCodeInternal            ErrCode = "INTERNAL_ERROR"

	// ErrCodeEmptyCollection tags the notice for a user without starred repositories
	ErrCodeEmptyCollection ErrCode = "EMPTY_COLLECTION"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error

	// StatusCode is the upstream HTTP status, when there was one
	StatusCode int
	// ResetAt is when the upstream rate limit resets (rate limit errors only)
	ResetAt time.Time
	// RepoID identifies the repository of a per-repository failure
	RepoID int64
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError creates an error for bad user input; no network call is made
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
	}
}

// NewRateLimitedError creates a rate limit error carrying the reset time
func NewRateLimitedError(resetAt time.Time) *AppError {
	reset := "unknown"
	if !resetAt.IsZero() {
		reset = resetAt.Local().Format("15:04:05")
	}
	return &AppError{
		Code:       ErrCodeRateLimited,
		Message:    fmt.Sprintf("rate limit exceeded, add a GitHub personal access token; rate limit resets at %s", reset),
		StatusCode: 403,
		ResetAt:    resetAt,
	}
}

// NewTransportError creates an error for a non-2xx response or network failure
func NewTransportError(statusCode int, err error) *AppError {
	msg := "GitHub API request failed"
	if statusCode > 0 {
		msg = fmt.Sprintf("GitHub API error: %d", statusCode)
	}
	return &AppError{
		Code:       ErrCodeTransport,
		Message:    msg,
		Err:        err,
		StatusCode: statusCode,
	}
}

// NewFetchFailedError creates an isolated per-repository failure
func NewFetchFailedError(repoID int64, what string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeFetchFailed,
		Message: fmt.Sprintf("failed to fetch %s for repository %d", what, repoID),
		Err:     err,
		RepoID:  repoID,
	}
}

// NewCredentialsRequiredError is raised before a trend fetch when no token is set
func NewCredentialsRequiredError() *AppError {
	return &AppError{
		Code:    ErrCodeCredentialsRequired,
		Message: "a GitHub token is required to fetch star history",
	}
}

// NewPendingError reports a per-repository fetch that is still in flight
func NewPendingError(repoID int64, what string) *AppError {
	return &AppError{
		Code:    ErrCodePending,
		Message: fmt.Sprintf("%s for repository %d is still being fetched", what, repoID),
		RepoID:  repoID,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of an AppError in the chain, or ErrCodeInternal
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeRateLimited
}

// IsInvalidInput checks if the error is an input validation error
func IsInvalidInput(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeInvalidInput
}

// IsCredentialsRequired checks if the error signals a missing token
func IsCredentialsRequired(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeCredentialsRequired
}

// IsPending checks if the error signals an in-flight fetch
func IsPending(err error) bool {
	return err != nil && CodeOf(err) == ErrCodePending
}
