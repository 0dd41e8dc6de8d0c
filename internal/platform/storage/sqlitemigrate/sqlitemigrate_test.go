package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyRunsMigrationsOnce(t *testing.T) {
	migrationFS := fstest.MapFS{
		"001_things.sql": &fstest.MapFile{Data: []byte(`-- +migrate Up
CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
-- +migrate Down
DROP TABLE things;
`)},
	}

	sqlDB := openTestDB(t)
	if err := Apply(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := sqlDB.Exec("INSERT INTO things (name) VALUES ('a')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}

	// Second run must be a no-op.
	if err := Apply(sqlDB, migrationFS); err != nil {
		t.Fatalf("re-apply: %v", err)
	}

	var applied int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count ledger rows: %v", err)
	}
	if applied != 1 {
		t.Fatalf("ledger rows = %d, want 1", applied)
	}
}

func TestApplyOrdersLexically(t *testing.T) {
	migrationFS := fstest.MapFS{
		"002_add_column.sql": &fstest.MapFile{Data: []byte(`-- +migrate Up
ALTER TABLE items ADD COLUMN label TEXT NOT NULL DEFAULT '';
`)},
		"001_items.sql": &fstest.MapFile{Data: []byte(`-- +migrate Up
CREATE TABLE items (id INTEGER PRIMARY KEY);
`)},
	}

	sqlDB := openTestDB(t)
	if err := Apply(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := sqlDB.Exec("INSERT INTO items (label) VALUES ('x')"); err != nil {
		t.Fatalf("insert with migrated column: %v", err)
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if err := Apply(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	got := upSection(content)
	if got != "\nCREATE TABLE a (id INTEGER);\n" {
		t.Fatalf("up section = %q", got)
	}

	// Files without markers run as-is.
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("unmarked section = %q", got)
	}
}
