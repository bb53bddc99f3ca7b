package decode

import (
	"fmt"
	"time"
)

// TimestampKey is the designated timestamp field in upstream records.
const TimestampKey = "Timelogged"

// timestampLayout is the upstream timestamp format: localized wall-clock
// time, 12-hour with AM/PM marker.
const timestampLayout = "01/02/2006 03:04:05 PM"

// Record is one flat upstream sample: raw variable names mapped to raw
// values, preserving the order the fields appeared in the payload.
//
// Insertion order matters downstream — point building iterates fields in
// payload order so serialized output is byte-identical across runs.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty Record ready for Set calls.
func NewRecord() Record {
	return Record{values: make(map[string]string)}
}

// Set stores a field value. Setting an existing key overwrites the value
// without changing its position.
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the raw value for a field and whether it is present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field names in insertion order.
// The returned slice is shared; callers must not mutate it.
func (r Record) Keys() []string {
	return r.keys
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.keys)
}

// Timestamp extracts and normalizes the record's timestamp.
//
// The raw value is wall-clock time in the given zone; the result is the
// corresponding absolute instant in UTC. A record without the timestamp
// field returns ErrNoTimestamp — such records are processable but cannot
// be written.
//
// Parameters:
//   - loc: Zone the upstream localizes timestamps in
//
// Returns:
//   - time.Time: UTC instant, seconds resolution
//   - error: ErrNoTimestamp if absent, or a parse error
func (r Record) Timestamp(loc *time.Location) (time.Time, error) {
	raw, ok := r.values[TimestampKey]
	if !ok {
		return time.Time{}, ErrNoTimestamp
	}

	ts, err := time.ParseInLocation(timestampLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", TimestampKey, raw, err)
	}

	return ts.UTC(), nil
}

// Filter returns a copy containing only the allowed fields. The timestamp
// field always survives so the record stays writable. A nil allow set
// returns the record unchanged.
func (r Record) Filter(allow map[string]struct{}) Record {
	if allow == nil {
		return r
	}

	out := NewRecord()
	for _, k := range r.keys {
		if _, ok := allow[k]; ok || k == TimestampKey {
			out.Set(k, r.values[k])
		}
	}
	return out
}
