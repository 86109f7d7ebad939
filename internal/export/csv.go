package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"
)

// TimeLayout is the CSV rendering of timestamps: tick precision, trailing
// zeros trimmed.
const TimeLayout = "2006-01-02 15:04:05.9999999"

// FormatCell renders a cell value as CSV text.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(TimeLayout)
	case time.Duration:
		return t.String()
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// WriteCSV writes a header row followed by one line per table row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			line[j] = FormatCell(row[col])
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV written by WriteCSV. Cells come back as strings;
// empty cells are absent from their row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows), err)
		}

		row := make(Row, len(rec))
		for i, cell := range rec {
			if cell != "" {
				row[header[i]] = cell
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ParseTime parses a timestamp rendered by FormatCell.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}
