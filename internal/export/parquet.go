package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/raphaelgruber/aprx-explorer/internal/history"
)

const parquetRoot = "parquet_go_root"

// parquetColumn is one field of the generated Parquet schema.
type parquetColumn struct {
	source string // table column
	name   string // parquet field name
	inName string // key of the field in JSON rows
	tag    string
}

type parquetSchema struct {
	Tag    string
	Fields []parquetField
}

type parquetField struct {
	Tag string
}

// WriteParquet writes the table as a single Parquet file.
// start_time and end_time are TIMESTAMP_MICROS, run_duration is INT64
// nanoseconds, every other column is an optional UTF8 string.
func WriteParquet(w io.Writer, t *Table) error {
	cols := parquetColumns(t.Columns)

	schema := parquetSchema{Tag: "name=" + parquetRoot + ", repetitiontype=REQUIRED"}
	for _, c := range cols {
		schema.Fields = append(schema.Fields, parquetField{Tag: c.tag})
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	pw, err := writer.NewJSONWriter(string(schemaJSON), writerfile.NewWriterFile(w), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		rec := make(map[string]any, len(cols))
		for _, c := range cols {
			v, ok := parquetValue(row[c.source])
			if ok {
				rec[c.inName] = v
			}
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal row %d: %w", i, err)
		}
		if err := pw.Write(string(line)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return nil
}

// parquetColumns maps table columns to schema fields. Names are restricted to
// [A-Za-z0-9_] so they survive the tag syntax; collisions get a numeric suffix.
// InName is positional so case-only differences never collide; the JSON
// writer matches row keys against it.
func parquetColumns(columns []string) []parquetColumn {
	used := make(map[string]bool, len(columns))
	out := make([]parquetColumn, 0, len(columns))

	for i, col := range columns {
		name := ParquetName(col)
		base := name
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[strings.ToLower(name)] = true

		var typ string
		switch col {
		case history.KeyStartTime, history.KeyEndTime:
			typ = "type=INT64, convertedtype=TIMESTAMP_MICROS"
		case history.KeyRunDuration:
			typ = "type=INT64"
		default:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		}

		inName := fmt.Sprintf("Col%d", i)
		out = append(out, parquetColumn{
			source: col,
			name:   name,
			inName: inName,
			tag:    fmt.Sprintf("name=%s, inname=%s, %s, repetitiontype=OPTIONAL", name, inName, typ),
		})
	}
	return out
}

// ParquetName returns the Parquet field name used for a table column.
func ParquetName(col string) string {
	var b strings.Builder
	for _, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func parquetValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case time.Time:
		return t.UnixMicro(), true
	case time.Duration:
		return int64(t), true
	case string:
		return t, t != ""
	default:
		return FormatCell(t), true
	}
}
