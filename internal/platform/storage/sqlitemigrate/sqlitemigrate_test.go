package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func migration(up, down string) *fstest.MapFile {
	body := "-- +migrate Up\n" + up
	if down != "" {
		body += "\n-- +migrate Down\n" + down
	}
	return &fstest.MapFile{Data: []byte(body)}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"0001_phase_attempts.sql": migration("CREATE TABLE phase_attempts(id INTEGER PRIMARY KEY, challenge_id TEXT NOT NULL);", "DROP TABLE phase_attempts;"),
		"0002_attempt_index.sql":  migration("CREATE INDEX idx_attempts ON phase_attempts(challenge_id);", ""),
	}

	for pass := 1; pass <= 2; pass++ {
		if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
			t.Fatalf("pass %d: apply migrations: %v", pass, err)
		}
		if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 2 {
			t.Fatalf("pass %d: migration rows = %d, want 2", pass, rows)
		}
	}
	if !tableExists(t, db, "phase_attempts") {
		t.Fatal("expected phase_attempts table")
	}
	if first := queryString(t, db, "SELECT name FROM schema_migrations ORDER BY name LIMIT 1"); first != "0001_phase_attempts.sql" {
		t.Fatalf("first migration = %q", first)
	}
}

func TestApplyMigrationsRetriesFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)

	broken := fstest.MapFS{"0001_phase_attempts.sql": migration("CREAT TABLE phase_attempts(id INT);", "")}
	if err := ApplyMigrations(context.Background(), db, broken, ""); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 0 {
		t.Fatalf("failed migration recorded %d rows, want 0", rows)
	}

	fixed := fstest.MapFS{"0001_phase_attempts.sql": migration("CREATE TABLE phase_attempts(id INTEGER PRIMARY KEY);", "")}
	if err := ApplyMigrations(context.Background(), db, fixed, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 1 {
		t.Fatalf("fixed migration rows = %d, want 1", rows)
	}
}

func TestApplyMigrationsRespectsMigrationRoot(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"scheduler/0001_phase_attempts.sql": migration("CREATE TABLE phase_attempts(id TEXT PRIMARY KEY);", ""),
		"other/0001_unrelated.sql":          migration("CREATE TABLE unrelated(id TEXT PRIMARY KEY);", ""),
	}

	if err := ApplyMigrations(context.Background(), db, migrations, "scheduler"); err != nil {
		t.Fatalf("apply migrations with root: %v", err)
	}
	if key := queryString(t, db, "SELECT name FROM schema_migrations LIMIT 1"); key != "scheduler/0001_phase_attempts.sql" {
		t.Fatalf("migration key = %q, want root-qualified path", key)
	}
	if !tableExists(t, db, "phase_attempts") {
		t.Fatal("expected phase_attempts table")
	}
	if tableExists(t, db, "unrelated") {
		t.Fatal("migration outside root was applied")
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	row := db.QueryRow(query)
	if err := row.Scan(&value); err != nil {
		t.Fatalf("query int value: %v", err)
	}
	return value
}

func queryString(t *testing.T, db *sql.DB, query string) string {
	t.Helper()
	var value string
	row := db.QueryRow(query)
	if err := row.Scan(&value); err != nil {
		t.Fatalf("query string value: %v", err)
	}
	return value
}

func tableExists(t *testing.T, db *sql.DB, tableName string) bool {
	t.Helper()
	query := "SELECT name FROM sqlite_master WHERE type='table' AND name = ?"
	var name string
	row := db.QueryRow(query, tableName)
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false
		}
		t.Fatalf("check table exists: %v", err)
	}
	return name == tableName
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{name: "up only", content: "-- +migrate Up\nCREATE TABLE a(id INT);", want: "\nCREATE TABLE a(id INT);"},
		{name: "up and down", content: "-- +migrate Up\nX;\n-- +migrate Down\nY;", want: "\nX;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractUpMigration(tt.content); got != tt.want {
				t.Fatalf("ExtractUpMigration = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}
