// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/valpere/jobharvest/internal/extract"
)

// JSONWriter writes one indented JSON array. Listings are buffered and the
// file is written on Close.
type JSONWriter struct {
	filename string
	listings []extract.Listing
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename, listings: []extract.Listing{}}, nil
}

func (w *JSONWriter) Write(ctx context.Context, listings []extract.Listing) error {
	w.listings = append(w.listings, listings...)
	return nil
}

// Close writes the file.
func (w *JSONWriter) Close() error {
	if w.listings == nil {
		return nil
	}
	data, err := json.MarshalIndent(w.listings, "", "  ")
	if err != nil {
		return err
	}
	w.listings = nil
	return os.WriteFile(w.filename, append(data, '\n'), 0644)
}

func ensureDir(filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
