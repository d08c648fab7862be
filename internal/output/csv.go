// internal/output/csv.go
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/valpere/jobharvest/internal/extract"
)

// CSVWriter writes data in CSV format with a fixed header.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	header   bool
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &CSVWriter{
		filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
	}, nil
}

func (w *CSVWriter) Write(ctx context.Context, listings []extract.Listing) error {
	if w.writer == nil {
		return fmt.Errorf("csv writer is closed")
	}
	if !w.header {
		if err := w.writer.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.header = true
	}
	for _, l := range listings {
		if err := w.writer.Write(row(l)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close writes the header if nothing else was written and closes the file.
func (w *CSVWriter) Close() error {
	if w.writer != nil {
		if !w.header {
			_ = w.writer.Write(Columns)
		}
		w.writer.Flush()
		w.writer = nil
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
