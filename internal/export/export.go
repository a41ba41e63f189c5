// Package export serializes a fetched collection for download.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, true
	}
	return "", false
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Filename returns the download name for a user's export
func Filename(username string, f Format) string {
	return fmt.Sprintf("%s-starred-repos.%s", username, f)
}

// Document is the JSON export payload
type Document struct {
	Repositories []*domain.Repository `json:"repositories"`
	Summary      *domain.Summary      `json:"summary"`
}

// WriteJSON writes the collection and its summary as indented JSON
func WriteJSON(w io.Writer, repos []*domain.Repository, summary *domain.Summary) error {
	if repos == nil {
		repos = []*domain.Repository{}
	}
	data, err := json.MarshalIndent(Document{Repositories: repos, Summary: summary}, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var csvHeader = []string{"Name", "Owner", "Description", "Stars", "Forks", "Language", "URL", "Updated"}

// CSV renders one row per repository in collection order. Only the
// description is quoted; other fields are written as-is.
func CSV(repos []*domain.Repository) string {
	lines := make([]string, 0, len(repos)+1)
	lines = append(lines, strings.Join(csvHeader, ","))
	for _, r := range repos {
		lines = append(lines, strings.Join([]string{
			r.Name,
			r.Owner,
			quote(r.Description),
			strconv.Itoa(r.Stars),
			strconv.Itoa(r.Forks),
			r.Language,
			r.URL,
			r.UpdatedAt.UTC().Format("2006-01-02"),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes the CSV rendering of repos
func WriteCSV(w io.Writer, repos []*domain.Repository) error {
	_, err := io.WriteString(w, CSV(repos))
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
