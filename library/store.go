package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/pretty"
	"golang.org/x/crypto/blake2b"
)

// IDPolicy selects how Create picks the id of a new book.
type IDPolicy int

const (
	// IDNext uses the largest id in the catalog plus one, so ids are never
	// reused while the record holding them exists.
	IDNext IDPolicy = iota
	// IDByCount uses the number of books plus one. This reproduces catalogs
	// written by the first version of the program and can hand out an id
	// that is already taken once books have been deleted.
	IDByCount
)

func (p IDPolicy) String() string {
	switch p {
	case IDNext:
		return "next"
	case IDByCount:
		return "count"
	}
	return fmt.Sprintf("IDPolicy(%d)", int(p))
}

func ParseIDPolicy(s string) (IDPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "next":
		return IDNext, nil
	case "count":
		return IDByCount, nil
	}
	return 0, fmt.Errorf("unknown id policy %q (use next or count)", s)
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithIDPolicy(p IDPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store owns the catalog: the books in insertion order, mirrored to a JSON
// file after every change. It is not safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger
	policy IDPolicy

	books []*Book

	// digest of the file contents last read or written; onDisk is false
	// when the file did not exist at that point.
	digest [blake2b.Size256]byte
	onDisk bool
	// why the last Load started empty although the file existed
	loadErr error
}

// NewStore creates a store backed by the file at path and loads it. A missing
// or unparseable file gives an empty catalog.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
		books:  []*Book{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load()
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) Len() int { return len(s.books) }

// Load replaces the in-memory catalog with the content of the file. Both a
// missing file and a corrupt one leave the catalog empty; they differ only
// in what gets logged and in what Verify reports.
func (s *Store) Load() {
	s.books = []*Book{}
	s.onDisk = false
	s.loadErr = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("catalog file not found, starting empty", "path", s.path)
			return
		}
		s.logger.Warn("catalog file unreadable, starting empty", "path", s.path, "err", err)
		s.loadErr = err
		return
	}
	s.remember(data)

	books, err := decodeBooks(data)
	if err != nil {
		s.logger.Warn("catalog file corrupt, starting empty", "path", s.path, "err", err)
		s.loadErr = err
		return
	}
	s.books = books
	s.logger.Debug("catalog loaded", "path", s.path, "books", len(books))
}

// Save writes the whole catalog to the file. On failure the in-memory
// catalog keeps its changes and differs from the file until the next
// successful Save.
func (s *Store) Save() error {
	data, err := encodeBooks(s.books)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	s.remember(data)
	s.loadErr = nil
	return nil
}

// Verify reports ErrDrift when the file was changed by someone else since
// the last Load or Save, and ErrCorrupt when the last Load could not use the
// file and nothing has been saved since.
func (s *Store) Verify() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if s.onDisk {
				return fmt.Errorf("%w: %s was removed", ErrDrift, s.path)
			}
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if !s.onDisk || blake2b.Sum256(data) != s.digest {
		return fmt.Errorf("%w: %s", ErrDrift, s.path)
	}
	if s.loadErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, s.loadErr)
	}
	return nil
}

// Create appends a new available book and saves the catalog. The book is
// added even when the returned error reports a failed save.
func (s *Store) Create(title, author string, year int) (Book, error) {
	b := &Book{
		ID:     s.nextID(),
		Title:  title,
		Author: author,
		Year:   year,
		Status: StatusAvailable,
	}
	s.books = append(s.books, b)
	s.logger.Debug("book created", "id", b.ID, "title", b.Title)
	return *b, s.Save()
}

// Delete removes the first book with the given id and saves the catalog.
func (s *Store) Delete(id int64) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	s.books = slices.Delete(s.books, i, i+1)
	s.logger.Debug("book deleted", "id", id)
	return s.Save()
}

func (s *Store) FindByID(id int64) (Book, error) {
	i := s.index(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return *s.books[i], nil
}

// SearchByField returns the books whose field equals query, ignoring case.
// The match is on the whole value, not a substring.
func (s *Store) SearchByField(field Field, query string) ([]Book, error) {
	if !slices.Contains(Fields, field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, string(field))
	}
	q := strings.ToLower(query)
	res := []Book{}
	for _, b := range s.books {
		if strings.ToLower(b.value(field)) == q {
			res = append(res, *b)
		}
	}
	return res, nil
}

// UpdateStatus sets the status of a book, saves the catalog and returns the
// updated book. The status is validated before the book is looked up. Like
// Create, the change stays in memory when the returned error reports a
// failed save.
func (s *Store) UpdateStatus(id int64, newStatus string) (Book, error) {
	st, err := ParseStatus(newStatus)
	if err != nil {
		return Book{}, err
	}
	i := s.index(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	b := s.books[i]
	b.Status = st
	s.logger.Debug("book status updated", "id", id, "status", st)
	return *b, s.Save()
}

// ListAll returns a copy of the catalog in insertion order.
func (s *Store) ListAll() []Book {
	res := make([]Book, len(s.books))
	for i, b := range s.books {
		res[i] = *b
	}
	return res
}

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.books, func(b *Book) bool { return b.ID == id })
}

func (s *Store) nextID() int64 {
	if s.policy == IDByCount {
		return int64(len(s.books)) + 1
	}
	var highest int64
	for _, b := range s.books {
		highest = max(highest, b.ID)
	}
	return highest + 1
}

func (s *Store) remember(data []byte) {
	s.digest = blake2b.Sum256(data)
	s.onDisk = true
}

func decodeBooks(data []byte) ([]*Book, error) {
	var books []*Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, err
	}
	for i, b := range books {
		if b == nil {
			return nil, fmt.Errorf("entry %d is null", i)
		}
		if b.Status == "" {
			return nil, fmt.Errorf("entry %d (id %d) has no status", i, b.ID)
		}
	}
	if books == nil {
		books = []*Book{}
	}
	return books, nil
}

// encodeBooks renders the catalog as an indented JSON array. Non-ASCII text
// is written as is.
func encodeBooks(books []*Book) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(books); err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(buf.Bytes(), &pretty.Options{Width: 80, Indent: "    "}), nil
}
