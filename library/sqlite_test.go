package library

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportAndReadSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	if err := ExportSQLite(dbPath, sampleBooks); err != nil {
		t.Fatalf("export: %v", err)
	}
	// exporting again replaces the table
	if err := ExportSQLite(dbPath, sampleBooks); err != nil {
		t.Fatalf("export again: %v", err)
	}

	got, err := ReadSQLite(dbPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []LegacyBook{
		{Title: "Война и мир", Author: "Толстой", Year: 1869, Available: true},
		{Title: "Dune", Author: "Frank Herbert", Year: 1965, Available: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestReadSQLiteWithoutYear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stmts := []string{
		`CREATE TABLE books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            content TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1,
            borrower_id INTEGER
        );`,
		`INSERT INTO books(title,author,content) VALUES('1984','George Orwell','')`,
		`INSERT INTO books(title,author,content,available,borrower_id) VALUES('Emma','Jane Austen','',0,3)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	db.Close()

	got, err := ReadSQLite(dbPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []LegacyBook{
		{Title: "1984", Author: "George Orwell", Available: true},
		{Title: "Emma", Author: "Jane Austen", Available: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestReadSQLiteMissing(t *testing.T) {
	if _, err := ReadSQLite(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("want error for missing database")
	}

	empty := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", empty)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE other (x INTEGER)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
	db.Close()
	if _, err := ReadSQLite(empty); err == nil {
		t.Fatal("want error for database without books table")
	}
}
