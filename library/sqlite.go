package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// LegacyBook is a row read from a SQLite library database.
type LegacyBook struct {
	Title     string
	Author    string
	Year      int
	Available bool
}

func openSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

const sqliteSchemaVersion = 1

func applyExportSchema(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`,
		`DROP TABLE IF EXISTS books;`,
		`CREATE TABLE books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            year INTEGER NOT NULL,
            status TEXT NOT NULL CHECK (status IN ('available','checked_out')),
            available BOOLEAN NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books(author COLLATE NOCASE);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	_, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, sqliteSchemaVersion)
	return err
}

// ExportSQLite writes books into the books table of the SQLite database at
// dbPath, replacing whatever the table held. Books sharing an id (possible in
// catalogs created with IDByCount) keep only the last one.
func ExportSQLite(dbPath string, books []Book) error {
	db, err := openSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := applyExportSchema(tx); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO books(id,title,author,year,status,available) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range books {
		if _, err := stmt.Exec(b.ID, b.Title, b.Author, b.Year, string(b.Status), b.Status == StatusAvailable); err != nil {
			return fmt.Errorf("insert book %d: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// ReadSQLite returns the books of a SQLite library database in id order.
// Databases without a year column yield year 0.
func ReadSQLite(dbPath string) ([]LegacyBook, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	hasYear, err := hasColumn(db, "books", "year")
	if err != nil {
		return nil, err
	}
	query := `SELECT title, author, 0, available FROM books ORDER BY id`
	if hasYear {
		query = `SELECT title, author, COALESCE(year,0), available FROM books ORDER BY id`
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []LegacyBook
	for rows.Next() {
		var b LegacyBook
		if err := rows.Scan(&b.Title, &b.Author, &b.Year, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   bool
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	if !found {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n); err != nil {
			return false, err
		}
		if n == 0 {
			return false, fmt.Errorf("no %s table", table)
		}
	}
	return found, nil
}
