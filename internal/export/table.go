// Package export flattens history records into a single table and writes it
// as CSV or Parquet.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/raphaelgruber/aprx-explorer/internal/history"
)

var (
	// ErrEmptyTable indicates there are no records to export.
	ErrEmptyTable = errors.New("no history records to export")

	// ErrNoEndTime indicates no row carries an end_time to sort by.
	ErrNoEndTime = errors.New("no end_time column to sort by")
)

// PreferredColumns is the leading column order; other columns follow sorted.
var PreferredColumns = []string{
	history.KeyStartTime,
	history.KeyEndTime,
	history.KeyName,
	history.KeyRunDuration,
	history.KeyText,
	history.KeyID,
	history.KeyCatalogPath,
	history.KeyPropertiesXML,
	history.KeyType,
	history.KeyItemType,
	history.KeySourceModifiedTime,
}

// Row maps column names to cell values. Absent keys are empty cells.
// Values are time.Time, time.Duration or string.
type Row map[string]any

// Table is an ordered set of columns and rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// BuildTable flattens records into a table: one row per record, preferred
// columns first, rows sorted ascending by end_time, all-empty columns dropped.
func BuildTable(records []history.Record) (*Table, error) {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, rowFromFields(r.Fields()))
	}
	return tableFromRows(rows)
}

// tableFromRows orders columns, sorts rows and drops empty columns.
func tableFromRows(rows []Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	present := make(map[string]bool)
	for _, row := range rows {
		for k, v := range row {
			if !emptyCell(v) {
				present[k] = true
			}
		}
	}
	if !present[history.KeyEndTime] {
		return nil, ErrNoEndTime
	}

	columns := make([]string, 0, len(present))
	for _, c := range PreferredColumns {
		if present[c] {
			columns = append(columns, c)
		}
	}
	var rest []string
	for c := range present {
		if !slices.Contains(PreferredColumns, c) {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i][history.KeyEndTime].(time.Time)
		b, bok := sorted[j][history.KeyEndTime].(time.Time)
		switch {
		case aok && bok:
			return a.Before(b)
		default:
			// Rows without end_time sort last.
			return aok && !bok
		}
	})

	return &Table{Columns: columns, Rows: sorted}, nil
}

// rowFromFields normalizes a record's field set into cell values.
func rowFromFields(fields map[string]any) Row {
	row := make(Row, len(fields))
	for k, v := range fields {
		cell, ok := toCell(v)
		if ok {
			row[k] = cell
		}
	}
	return row
}

// toCell converts a field value into a table cell.
// Nested values become compact JSON.
func toCell(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case time.Time, time.Duration:
		return t, true
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}

func emptyCell(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}
