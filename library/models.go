package library

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the circulation state of a book.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusCheckedOut Status = "checked_out"
)

// Labels written by the first version of the catalog, still accepted on input.
var legacyStatus = map[string]Status{
	"в наличии": StatusAvailable,
	"выдана":    StatusCheckedOut,
}

// ParseStatus maps user or file input to a Status.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch Status(v) {
	case StatusAvailable, StatusCheckedOut:
		return Status(v), nil
	}
	if st, ok := legacyStatus[v]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q (use %q or %q)", ErrInvalidStatus, s, StatusAvailable, StatusCheckedOut)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Field names a searchable column of a Book.
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldYear   Field = "year"
)

// Fields lists the searchable fields in display order.
var Fields = []Field{FieldTitle, FieldAuthor, FieldYear}

func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldTitle, FieldAuthor, FieldYear:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
}

// Book is one catalog entry. Only Status changes after creation.
type Book struct {
	ID     int64  `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Year   int    `json:"year" yaml:"year"`
	Status Status `json:"status" yaml:"status"`
}

// value returns the text a search on f compares against; f must be one of
// Fields.
func (b *Book) value(f Field) string {
	switch f {
	case FieldAuthor:
		return b.Author
	case FieldYear:
		return strconv.Itoa(b.Year)
	}
	return b.Title
}
