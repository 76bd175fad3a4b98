package library

import (
	"fmt"
	"io"
	"strings"

	"github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for Export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOON Format = "toon"
)

var Formats = []Format{FormatJSON, FormatYAML, FormatTOON}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatYAML, FormatTOON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (use one of %v)", s, Formats)
}

// Export writes books to w in the given format. JSON output uses the same
// layout as the catalog file.
func Export(w io.Writer, books []Book, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		ptrs := make([]*Book, len(books))
		for i := range books {
			ptrs[i] = &books[i]
		}
		data, err = encodeBooks(ptrs)
	case FormatYAML:
		if books == nil {
			books = []Book{}
		}
		data, err = yaml.Marshal(map[string][]Book{"books": books})
	case FormatTOON:
		rows := make([]map[string]any, len(books))
		for i, b := range books {
			rows[i] = map[string]any{
				"id":     b.ID,
				"title":  b.Title,
				"author": b.Author,
				"year":   b.Year,
				"status": string(b.Status),
			}
		}
		data, err = toon.Marshal(map[string]any{"books": rows})
	default:
		return fmt.Errorf("unknown export format %q", string(format))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
