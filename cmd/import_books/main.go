// Command import_books copies the books of a SQLite library database into a
// catalog file. Books that are not available are imported as checked out.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"book-catalog/library"

	"github.com/lmittmann/tint"
)

func main() {
	dbPath := flag.String("db", "library.db", "SQLite database to import from")
	catalog := flag.String("file", "data.json", "Catalog file to import into")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	books, err := library.ReadSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading database %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	store := library.NewStore(*catalog, library.WithLogger(logger))
	fmt.Printf("Importing %d book(s) from %s into %s...\n", len(books), *dbPath, *catalog)

	res := importBooks(os.Stdout, store, books)

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", res.imported)
	fmt.Printf("Errors: %d\n", res.failed)
	if res.saveErr != nil {
		fmt.Printf("Catalog file not written: %v\n", res.saveErr)
	}

	if res.imported > 0 {
		fmt.Println("\nCatalog:")
		fmt.Printf("%-5s %-50s %-30s %s\n", "ID", "Title", "Author", "Status")
		fmt.Println(strings.Repeat("-", 100))
		for _, b := range store.ListAll() {
			fmt.Printf("%-5d %-50s %-30s %s\n", b.ID, truncateString(b.Title, 50), truncateString(b.Author, 30), b.Status)
		}
	}
	if res.failed > 0 || res.saveErr != nil {
		os.Exit(1)
	}
}

type importResult struct {
	imported int
	failed   int
	// last failed save; nil when the catalog file holds every imported book
	saveErr error
}

// importBooks adds books to store, reporting each one on w. A failed save
// does not fail the book: it stays in the catalog and is written by a later
// save, so the import keeps going and saves once more at the end.
func importBooks(w io.Writer, store *library.Store, books []library.LegacyBook) importResult {
	var res importResult
	unsaved := false

	for _, lb := range books {
		fmt.Fprintf(w, "Importing: %s by %s... ", lb.Title, lb.Author)

		b, err := store.Create(lb.Title, lb.Author, lb.Year)
		if err != nil && !isPersistence(err) {
			fmt.Fprintf(w, "ERROR - %v\n", err)
			res.failed++
			continue
		}
		saved := err == nil
		if !lb.Available {
			b, err = store.UpdateStatus(b.ID, string(library.StatusCheckedOut))
			if err != nil && !isPersistence(err) {
				fmt.Fprintf(w, "ERROR - %v\n", err)
				res.failed++
				continue
			}
			saved = err == nil
		}

		if saved {
			fmt.Fprintf(w, "SUCCESS (ID: %d)\n", b.ID)
			unsaved = false
		} else {
			fmt.Fprintf(w, "SUCCESS (ID: %d, not saved yet)\n", b.ID)
			unsaved = true
		}
		res.imported++
	}

	if unsaved {
		res.saveErr = store.Save()
	}
	return res
}

func isPersistence(err error) bool {
	var perr *library.PersistenceError
	return errors.As(err, &perr)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
