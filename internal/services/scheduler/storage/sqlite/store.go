// Package sqlite stores scheduler evaluation attempts in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/challenge.space/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/challenge.space/internal/services/scheduler/storage"
	"github.com/louisbranch/challenge.space/internal/services/scheduler/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed attempt persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a scheduler SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordAttempt persists one evaluation attempt.
func (s *Store) RecordAttempt(ctx context.Context, attempt storage.AttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	attempt.ChallengeID = strings.TrimSpace(attempt.ChallengeID)
	attempt.Outcome = strings.TrimSpace(attempt.Outcome)
	attempt.LastError = strings.TrimSpace(attempt.LastError)
	if attempt.ChallengeID == "" {
		return fmt.Errorf("challenge id is required")
	}
	if attempt.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO phase_attempts (
	challenge_id,
	outcome,
	from_phase,
	to_phase,
	last_error,
	created_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		attempt.ChallengeID,
		attempt.Outcome,
		attempt.FromPhase,
		attempt.ToPhase,
		attempt.LastError,
		attempt.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ListAttempts lists newest-first attempt records.
func (s *Store) ListAttempts(ctx context.Context, limit int) ([]storage.AttemptRecord, error) {
	return s.list(ctx, "", limit)
}

// ListChallengeAttempts lists newest-first attempt records of one challenge.
func (s *Store) ListChallengeAttempts(ctx context.Context, challengeID string, limit int) ([]storage.AttemptRecord, error) {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return nil, fmt.Errorf("challenge id is required")
	}
	return s.list(ctx, challengeID, limit)
}

func (s *Store) list(ctx context.Context, challengeID string, limit int) ([]storage.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	challenge_id,
	outcome,
	from_phase,
	to_phase,
	last_error,
	created_at
FROM phase_attempts
WHERE ? = '' OR challenge_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, challengeID, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	records := make([]storage.AttemptRecord, 0, limit)
	for rows.Next() {
		var record storage.AttemptRecord
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.ChallengeID,
			&record.Outcome,
			&record.FromPhase,
			&record.ToPhase,
			&record.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return records, nil
}

var _ storage.AttemptStore = (*Store)(nil)
