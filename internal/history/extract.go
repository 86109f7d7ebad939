package history

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
)

const (
	// ManifestName is the archive entry holding the project manifest.
	ManifestName = "GISProject.json"

	// HistoryItemType is the itemType of geoprocessing history entries.
	HistoryItemType = "GPHistory"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Extraction is the parsed manifest of one project archive.
type Extraction struct {
	Path     string
	items    []map[string]any
	consumed bool
}

// Extract reads the manifest of the project archive at path.
// The archive is fully closed before Extract returns; records are built
// lazily by Records.
func Extract(path string) (*Extraction, error) {
	raw, err := readManifest(path)
	if err != nil {
		return nil, err
	}

	// Manifests written by .NET tooling may start with a byte order mark.
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrManifestInvalid)
	}

	itemsRaw, ok := doc["projectItems"]
	if !ok || itemsRaw == nil {
		return nil, ErrNoProjectItems
	}
	list, ok := itemsRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: projectItems is %T", ErrNoProjectItems, itemsRaw)
	}

	items := make([]map[string]any, 0, len(list))
	for _, it := range list {
		// Non-object entries cannot be history items.
		if m, ok := it.(map[string]any); ok {
			items = append(items, m)
		}
	}

	return &Extraction{Path: path, items: items}, nil
}

// readManifest returns the raw bytes of the manifest entry.
func readManifest(path string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenArchive, path, err)
	}
	defer zr.Close()

	f, err := zr.Open(ManifestName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", ErrManifestMissing, ManifestName, path)
		}
		return nil, fmt.Errorf("open %s: %w", ManifestName, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestName, err)
	}
	return data, nil
}

// Len returns the number of GPHistory items in the manifest.
func (e *Extraction) Len() int {
	n := 0
	for _, it := range e.items {
		if isHistoryItem(it) {
			n++
		}
	}
	return n
}

// Records yields one Record per GPHistory item, building each on demand.
// A construction failure is yielded as an error; consumers that stop at the
// first error get all-or-nothing extraction. The sequence is single-pass: ranging over it again yields only ErrConsumed.
func (e *Extraction) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if e.consumed {
			yield(Record{}, ErrConsumed)
			return
		}
		e.consumed = true

		for i, it := range e.items {
			if !isHistoryItem(it) {
				continue
			}
			rec, err := NewRecord(it)
			if err != nil {
				if !yield(Record{}, fmt.Errorf("project item %d: %w", i, err)) {
					return
				}
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func isHistoryItem(item map[string]any) bool {
	t, _ := item[KeyItemType].(string)
	return t == HistoryItemType
}

// CollectOptions controls how Collect treats bad records.
type CollectOptions struct {
	// SkipInvalid drops records that fail with ErrMalformedRecord instead of
	// aborting. Off by default: one bad record fails the whole extraction.
	SkipInvalid bool

	// OnSkip is called for each dropped record when SkipInvalid is set.
	OnSkip func(err error)
}

// Collect drains a record sequence into a slice.
func Collect(seq iter.Seq2[Record, error], opts CollectOptions) ([]Record, error) {
	var records []Record
	for rec, err := range seq {
		if err != nil {
			if opts.SkipInvalid && errors.Is(err, ErrMalformedRecord) {
				if opts.OnSkip != nil {
					opts.OnSkip(err)
				}
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
