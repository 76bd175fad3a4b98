package library

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidField  = errors.New("invalid search field")
	// ErrDrift is returned by Verify when the catalog file no longer matches
	// what the store last loaded or saved.
	ErrDrift = errors.New("catalog file changed outside the store")
	// ErrCorrupt is returned by Verify when the store started empty because
	// the catalog file could not be read or parsed.
	ErrCorrupt = errors.New("catalog file is corrupt")
)

// PersistenceError reports a failed write of the catalog file. The in-memory
// collection has already been changed when it is returned.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
