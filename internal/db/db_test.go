package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres literal", DialectPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.in); got != tt.want {
				t.Fatalf("Rebind = %q want %q", got, tt.want)
			}
		})
	}
}

func TestRunMigrationsOnce(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	migrations := fstest.MapFS{
		"sqlite/001_widgets.sql": {Data: []byte(`CREATE TABLE widgets (id TEXT PRIMARY KEY);`)},
		"sqlite/README.md":       {Data: []byte(`not a migration`)},
	}

	for i := 0; i < 2; i++ {
		if err := RunMigrations(database, DialectSQLite, migrations, "sqlite"); err != nil {
			t.Fatalf("run migrations pass %d: %v", i, err)
		}
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 applied migration, got %d", count)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
