package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"book-catalog/library"
)

// shell is the interactive command loop over a catalog store.
type shell struct {
	sc     *bufio.Scanner
	out    io.Writer
	store  *library.Store
	prompt bool // print prompts; off when input is piped

	ctx     context.Context
	lines   chan string
	scanErr error // set before lines is closed
}

func newShell(in io.Reader, out io.Writer, store *library.Store, prompt bool) *shell {
	return &shell{
		sc:     bufio.NewScanner(in),
		out:    out,
		store:  store,
		prompt: prompt,
		ctx:    context.Background(),
	}
}

// scan feeds input lines to readLine until the input ends or done is closed.
func (sh *shell) scan(done <-chan struct{}) {
	defer close(sh.lines)
	for sh.sc.Scan() {
		select {
		case sh.lines <- sh.sc.Text():
		case <-done:
			return
		}
	}
	sh.scanErr = sh.sc.Err()
}

// readLine returns the next input line; false means the input ended or the
// context was cancelled.
func (sh *shell) readLine() (string, bool) {
	select {
	case <-sh.ctx.Done():
		return "", false
	case line, ok := <-sh.lines:
		return line, ok
	}
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) println(args ...any) {
	fmt.Fprintln(sh.out, args...)
}

// ask prints label (when prompting) and reads one trimmed line.
func (sh *shell) ask(label string) (string, bool) {
	if sh.prompt {
		sh.printf("%s", label)
	}
	line, ok := sh.readLine()
	if !ok {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (sh *shell) askInt(label string) (int64, bool) {
	s, ok := sh.ask(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		sh.printf("Invalid number: %s\n", s)
		return 0, false
	}
	return n, true
}

func (sh *shell) usage() {
	sh.println("Available commands:")
	sh.println("  1. add book")
	sh.println("  2. remove book")
	sh.println("  3. search book")
	sh.println("  4. list books")
	sh.println("  5. update status")
	sh.println("  6. exit")
	sh.println("  find book, help")
}

// run reads commands until exit, the end of the input, or ctx is cancelled.
// Cancellation returns ctx.Err().
func (sh *shell) run(ctx context.Context) error {
	sh.ctx = ctx
	sh.lines = make(chan string)
	done := make(chan struct{})
	defer close(done)
	go sh.scan(done)

	if sh.prompt {
		sh.println("Welcome to the book catalog!")
		sh.usage()
	}
	for {
		if sh.prompt {
			sh.printf("\n> ")
		}
		line, ok := sh.readLine()
		if !ok {
			if err := ctx.Err(); err != nil {
				sh.println()
				return err
			}
			return sh.scanErr
		}
		cmd := strings.ToLower(strings.TrimSpace(line))

		switch cmd {
		case "":
			continue
		case "1", "add book", "add":
			sh.handleAddBook()
		case "2", "remove book", "remove", "rm":
			sh.handleRemoveBook()
		case "3", "search book", "search":
			sh.handleSearchBooks()
		case "4", "list books", "list", "ls":
			sh.handleListBooks()
		case "5", "update status", "status":
			sh.handleUpdateStatus()
		case "find book", "find":
			sh.handleFindBook()
		case "help", "?":
			sh.usage()
		case "6", "exit", "quit":
			sh.println("Goodbye!")
			return nil
		default:
			sh.println("Unknown command. Type 'help' to see the available commands.")
		}
		if err := ctx.Err(); err != nil {
			sh.println()
			return err
		}
	}
}

func (sh *shell) handleAddBook() {
	title, ok := sh.ask("Title: ")
	if !ok {
		return
	}
	author, ok := sh.ask("Author: ")
	if !ok {
		return
	}
	year, ok := sh.askInt("Year: ")
	if !ok {
		return
	}

	b, err := sh.store.Create(title, author, int(year))
	if err != nil {
		sh.reportSaveError(err)
		return
	}
	sh.printf("Added book '%s' with ID %d\n", b.Title, b.ID)
}

func (sh *shell) handleRemoveBook() {
	id, ok := sh.askInt("Book ID: ")
	if !ok {
		return
	}
	err := sh.store.Delete(id)
	switch {
	case errors.Is(err, library.ErrNotFound):
		sh.printf("Book with ID %d not found\n", id)
	case err != nil:
		sh.reportSaveError(err)
	default:
		sh.printf("Book with ID %d removed\n", id)
	}
}

func (sh *shell) handleFindBook() {
	id, ok := sh.askInt("Book ID: ")
	if !ok {
		return
	}
	b, err := sh.store.FindByID(id)
	if err != nil {
		sh.printf("Book with ID %d not found\n", id)
		return
	}
	printBooks(sh.out, []library.Book{b})
}

func (sh *shell) handleSearchBooks() {
	fieldStr, ok := sh.ask("Field (title/author/year): ")
	if !ok {
		return
	}
	field, err := library.ParseField(fieldStr)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	query, ok := sh.ask(fmt.Sprintf("Value to search by %s: ", field))
	if !ok {
		return
	}

	books, err := sh.store.SearchByField(field, query)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		sh.printf("No books found with %s '%s'.\n", field, query)
		return
	}
	sh.printf("Found %d book(s) with %s '%s':\n", len(books), field, query)
	printBooks(sh.out, books)
}

func (sh *shell) handleListBooks() {
	books := sh.store.ListAll()
	if len(books) == 0 {
		sh.println("No books in catalog.")
		return
	}
	printBooks(sh.out, books)
}

func (sh *shell) handleUpdateStatus() {
	id, ok := sh.askInt("Book ID: ")
	if !ok {
		return
	}
	status, ok := sh.ask(fmt.Sprintf("New status (%s/%s): ", library.StatusAvailable, library.StatusCheckedOut))
	if !ok {
		return
	}

	b, err := sh.store.UpdateStatus(id, status)
	switch {
	case errors.Is(err, library.ErrInvalidStatus):
		sh.printf("Error: %v\n", err)
	case errors.Is(err, library.ErrNotFound):
		sh.printf("Book with ID %d not found\n", id)
	case err != nil:
		sh.reportSaveError(err)
	default:
		sh.printf("Status of book %d set to '%s'\n", id, b.Status)
	}
}

func (sh *shell) reportSaveError(err error) {
	sh.printf("Error saving catalog: %v\n", err)
	sh.println("The change is kept in memory; it will be written with the next successful change.")
}

// printBooks renders books as a fixed-width table.
func printBooks(w io.Writer, books []library.Book) {
	fmt.Fprintf(w, "%-5s %-30s %-25s %-6s %s\n", "ID", "Title", "Author", "Year", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 82))
	for _, b := range books {
		fmt.Fprintf(w, "%-5d %-30s %-25s %-6d %s\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			b.Year,
			b.Status)
	}
}

// truncateString shortens s to maxLength runes, marking the cut with "...".
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
