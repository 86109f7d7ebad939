package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat indicates an output path with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format identifies an output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatFor picks the output format from a path's extension.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q (want .csv, .parquet or .pq)", ErrUnsupportedFormat, ext)
	}
}

// Write encodes the table to w in the given format.
func Write(w io.Writer, format Format, t *Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatParquet:
		return WriteParquet(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes the table to path in the format implied by its extension.
// A partially written file is removed on failure.
func WriteFile(path string, t *Table) (err error) {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				slog.Warn("failed to remove partial output", "path", path, "error", rmErr)
			}
		}
	}()

	if err := Write(f, format, t); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}
