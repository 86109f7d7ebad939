// Package history extracts geoprocessing history records from ArcGIS Pro
// project archives.
package history

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/raphaelgruber/aprx-explorer/internal/ticks"
)

// Manifest keys of the modeled fields. Derived fields use snake_case names.
const (
	KeyStartTime          = "start_time"
	KeyEndTime            = "end_time"
	KeyRunDuration        = "run_duration"
	KeyName               = "name"
	KeyText               = "text"
	KeyID                 = "iD"
	KeyCatalogPath        = "catalogPath"
	KeyPropertiesXML      = "propertiesXML"
	KeyType               = "type"
	KeyItemType           = "itemType"
	KeySourceModifiedTime = "sourceModifiedTime"
)

// Record is one geoprocessing run extracted from a project manifest.
// Empty strings and nil maps mean the field was not supplied.
type Record struct {
	ID          string
	CatalogPath string
	ItemType    string
	Type        string
	Name        string

	// PropertiesXML is the raw provenance payload the times are derived from.
	PropertiesXML string

	StartTime   time.Time
	EndTime     time.Time
	RunDuration time.Duration

	// Text is the natural-language summary, set only by annotation.
	Text string

	SourceModifiedTime map[string]string

	// Extra holds manifest keys that are not modeled above, verbatim.
	Extra map[string]any
}

// NewRecord builds a Record from a raw manifest item.
// Times are derived from propertiesXML first; start_time, end_time and
// run_duration values already present in raw take priority over the derived
// ones. Keys that are not modeled are kept in Extra.
func NewRecord(raw map[string]any) (Record, error) {
	xmlStr, err := requiredString(raw, KeyPropertiesXML)
	if err != nil {
		return Record{}, err
	}

	iv, err := DeriveTimes(xmlStr)
	if err != nil {
		return Record{}, err
	}

	return buildRecord(raw, iv)
}

// buildRecord is the second construction phase: it combines raw fields with
// the derived interval into an immutable Record.
func buildRecord(raw map[string]any, iv ticks.Interval) (Record, error) {
	rec := Record{
		StartTime:   iv.Start,
		EndTime:     iv.End,
		RunDuration: iv.Duration,
	}

	var err error
	strFields := []struct {
		key string
		dst *string
	}{
		{KeyID, &rec.ID},
		{KeyCatalogPath, &rec.CatalogPath},
		{KeyItemType, &rec.ItemType},
		{KeyType, &rec.Type},
		{KeyName, &rec.Name},
		{KeyPropertiesXML, &rec.PropertiesXML},
		{KeyText, &rec.Text},
	}
	for _, f := range strFields {
		if *f.dst, err = optionalString(raw, f.key); err != nil {
			return Record{}, err
		}
	}

	if v, ok := present(raw, KeyStartTime); ok {
		if rec.StartTime, err = parseTime(KeyStartTime, v); err != nil {
			return Record{}, err
		}
	}
	if v, ok := present(raw, KeyEndTime); ok {
		if rec.EndTime, err = parseTime(KeyEndTime, v); err != nil {
			return Record{}, err
		}
	}
	if v, ok := present(raw, KeyRunDuration); ok {
		if rec.RunDuration, err = parseDuration(v); err != nil {
			return Record{}, err
		}
	}

	if rec.SourceModifiedTime, err = stringMap(raw, KeySourceModifiedTime); err != nil {
		return Record{}, err
	}

	for k, v := range raw {
		if isModeled(k) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[k] = v
	}

	return rec, nil
}

// WithSummary returns a copy of r with Text set. r is left untouched.
func (r Record) WithSummary(text string) Record {
	out := r
	out.SourceModifiedTime = maps.Clone(r.SourceModifiedTime)
	out.Extra = maps.Clone(r.Extra)
	out.Text = text
	return out
}

// Fields returns the record's non-empty values keyed by manifest name.
// Times are time.Time, the duration is time.Duration, everything else is
// passed through as stored. Passthrough keys never shadow modeled ones.
func (r Record) Fields() map[string]any {
	fields := make(map[string]any, len(r.Extra)+11)
	for k, v := range r.Extra {
		if !isEmpty(v) {
			fields[k] = v
		}
	}

	// Derived values are always present: tick zero is the epoch, which is
	// also time.Time's zero value, and zero-length runs are legitimate.
	fields[KeyStartTime] = r.StartTime
	fields[KeyEndTime] = r.EndTime
	fields[KeyRunDuration] = r.RunDuration

	for k, v := range map[string]string{
		KeyName:          r.Name,
		KeyText:          r.Text,
		KeyID:            r.ID,
		KeyCatalogPath:   r.CatalogPath,
		KeyPropertiesXML: r.PropertiesXML,
		KeyType:          r.Type,
		KeyItemType:      r.ItemType,
	} {
		if v != "" {
			fields[k] = v
		}
	}

	if len(r.SourceModifiedTime) > 0 {
		fields[KeySourceModifiedTime] = r.SourceModifiedTime
	}

	return fields
}

func isModeled(key string) bool {
	switch key {
	case KeyStartTime, KeyEndTime, KeyRunDuration, KeyName, KeyText, KeyID,
		KeyCatalogPath, KeyPropertiesXML, KeyType, KeyItemType, KeySourceModifiedTime:
		return true
	}
	return false
}

// isEmpty reports whether a passthrough value counts as unset.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// present returns raw[key] when it exists and is not JSON null.
func present(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, ok := present(raw, key)
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedRecord, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMalformedRecord, key, v)
	}
	return s, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	if _, ok := present(raw, key); !ok {
		return "", nil
	}
	return requiredString(raw, key)
}

func stringMap(raw map[string]any, key string) (map[string]string, error) {
	v, ok := present(raw, key)
	if !ok {
		return nil, nil
	}

	switch m := v.(type) {
	case map[string]string:
		return maps.Clone(m), nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			switch s := val.(type) {
			case string:
				out[k] = s
			case nil:
				out[k] = ""
			case json.Number:
				out[k] = s.String()
			default:
				return nil, fmt.Errorf("%w: %s.%s is %T, want string", ErrMalformedRecord, key, k, val)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is %T, want object", ErrMalformedRecord, key, v)
	}
}

func parseTime(key string, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, key, err)
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s is %T, want RFC 3339 string", ErrMalformedRecord, key, v)
	}
}

func parseDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, KeyRunDuration, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, want duration string", ErrMalformedRecord, KeyRunDuration, v)
	}
}
