package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQL_LoadSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "chartboard-test.db")
	s, err := OpenSQL("sqlite3", dsn, `SELECT sl_no, degree_t, salary FROM placements ORDER BY sl_no`)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	_, err = s.conn.Exec(`
		CREATE TABLE placements (sl_no INTEGER, degree_t TEXT, salary INTEGER);
		INSERT INTO placements VALUES (1, 'Sci&Tech', 270000);
		INSERT INTO placements VALUES (2, 'Comm&Mgmt', NULL);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	ds, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("len = %d, want 2", ds.Len())
	}
	if got := ds.Columns; len(got) != 3 || got[0] != "sl_no" || got[2] != "salary" {
		t.Errorf("columns = %v", got)
	}
	if v, _ := ds.Records[0].Get("salary"); v != int64(270000) {
		t.Errorf("salary = %#v", v)
	}
	if v, _ := ds.Records[1].Get("salary"); v != nil {
		t.Errorf("NULL salary = %#v, want nil", v)
	}
	if s.Describe() != "sql:sqlite3" {
		t.Errorf("describe = %q", s.Describe())
	}
}

func TestSQL_BadQuery(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "chartboard-test.db")
	s, err := OpenSQL("sqlite3", dsn, `SELECT * FROM missing_table`)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Load(context.Background()); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestOpenSQL_UnknownDriver(t *testing.T) {
	if _, err := OpenSQL("oracle", "x", "SELECT 1"); err == nil {
		t.Error("expected error for unregistered driver")
	}
}
