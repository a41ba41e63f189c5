package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage"
)

// MemoryPath keeps the store in process memory for the lifetime of the session
const MemoryPath = ":memory:"

// sqliteStorage implements the Store interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Store, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives and dies with its connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the schema
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		generation TEXT NOT NULL,
		id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (generation, id)
	);

	CREATE INDEX IF NOT EXISTS idx_repositories_position ON repositories(generation, position);

	CREATE TABLE IF NOT EXISTS trends (
		generation TEXT NOT NULL,
		repo_id INTEGER NOT NULL,
		data TEXT NOT NULL,
		computed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (generation, repo_id)
	);

	CREATE TABLE IF NOT EXISTS contributors (
		generation TEXT NOT NULL,
		repo_id INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (generation, repo_id)
	);

	CREATE TABLE IF NOT EXISTS batches (
		generation TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		PRIMARY KEY (generation, id)
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

var generationTables = []string{"repositories", "trends", "contributors", "batches"}

// ReplaceRepositories stores the repositories of a new generation in order
// and removes everything left over from older generations
func (s *sqliteStorage) ReplaceRepositories(ctx context.Context, generation string, repos []*domain.Repository) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range generationTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE generation != ?", table), generation); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM repositories WHERE generation = ?", generation); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO repositories (generation, id, position, data)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, repo := range repos {
		data, err := json.Marshal(repo)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, generation, repo.ID, i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRepositories retrieves the repositories of a generation in fetch order
func (s *sqliteStorage) GetRepositories(ctx context.Context, generation string) ([]*domain.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM repositories
		WHERE generation = ?
		ORDER BY position
	`, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repos := make([]*domain.Repository, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var repo domain.Repository
		if err := json.Unmarshal([]byte(data), &repo); err != nil {
			return nil, err
		}
		repos = append(repos, &repo)
	}

	return repos, rows.Err()
}

// GetRepository retrieves one repository by id
func (s *sqliteStorage) GetRepository(ctx context.Context, generation string, id int64) (*domain.Repository, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM repositories WHERE generation = ? AND id = ?
	`, generation, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository %d", id))
	}
	if err != nil {
		return nil, err
	}

	var repo domain.Repository
	if err := json.Unmarshal([]byte(data), &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// SaveTrend stores a trend record unless one already exists
func (s *sqliteStorage) SaveTrend(ctx context.Context, generation string, record *domain.TrendRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trends (generation, repo_id, data, computed_at)
		VALUES (?, ?, ?, ?)
	`, generation, record.RepoID, string(data), record.ComputedAt)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTrend retrieves the trend record of one repository
func (s *sqliteStorage) GetTrend(ctx context.Context, generation string, repoID int64) (*domain.TrendRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM trends WHERE generation = ? AND repo_id = ?
	`, generation, repoID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("trend for repository %d", repoID))
	}
	if err != nil {
		return nil, err
	}

	var record domain.TrendRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTrends retrieves every trend record of a generation keyed by repository id
func (s *sqliteStorage) GetTrends(ctx context.Context, generation string) (map[int64]*domain.TrendRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM trends WHERE generation = ?
	`, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trends := make(map[int64]*domain.TrendRecord)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var record domain.TrendRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, err
		}
		trends[record.RepoID] = &record
	}

	return trends, rows.Err()
}

// SaveContributors stores the top contributors of a repository
func (s *sqliteStorage) SaveContributors(ctx context.Context, generation string, repoID int64, contributors []*domain.Contributor) error {
	data, err := json.Marshal(contributors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO contributors (generation, repo_id, data)
		VALUES (?, ?, ?)
	`, generation, repoID, string(data))
	return err
}

// GetContributors retrieves the stored contributors of a repository
func (s *sqliteStorage) GetContributors(ctx context.Context, generation string, repoID int64) ([]*domain.Contributor, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM contributors WHERE generation = ? AND repo_id = ?
	`, generation, repoID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("contributors for repository %d", repoID))
	}
	if err != nil {
		return nil, err
	}

	contributors := make([]*domain.Contributor, 0)
	if err := json.Unmarshal([]byte(data), &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}

// SaveBatch stores or updates a trend batch report
func (s *sqliteStorage) SaveBatch(ctx context.Context, generation string, batch *domain.TrendBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO batches (generation, id, data, started_at)
		VALUES (?, ?, ?, ?)
	`, generation, batch.ID, string(data), batch.StartedAt)
	return err
}

// GetBatches retrieves the batch reports of a generation, oldest first
func (s *sqliteStorage) GetBatches(ctx context.Context, generation string) ([]*domain.TrendBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM batches WHERE generation = ? ORDER BY started_at, rowid
	`, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]*domain.TrendBatch, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var batch domain.TrendBatch
		if err := json.Unmarshal([]byte(data), &batch); err != nil {
			return nil, err
		}
		batches = append(batches, &batch)
	}

	return batches, rows.Err()
}

// Reset drops every generation
func (s *sqliteStorage) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range generationTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
