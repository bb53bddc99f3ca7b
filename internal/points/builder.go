package points

import (
	"strconv"
	"strings"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/decode"
	"github.com/furnaceworks/bf-pipeline/internal/mapping"
)

// Builder converts one upstream record into line-protocol lines, one per
// measurement present in the record.
type Builder struct {
	classifier *mapping.Classifier
}

// NewBuilder creates a Builder over the given classifier.
func NewBuilder(c *mapping.Classifier) *Builder {
	return &Builder{classifier: c}
}

// fieldValue is one coerced (field, value) pair.
type fieldValue struct {
	field string
	value float64
}

// Build serializes a record into line-protocol lines sharing one timestamp.
//
// Fields are visited in the record's insertion order. Each is classified;
// unclassified names and forced-string fields are skipped, then the value
// is coerced and absent results are skipped. Surviving pairs accumulate
// per measurement, preserving first-seen measurement order, and one line
// is emitted per measurement:
//
//	measurement field1=v1,field2=v2 <unix-seconds>
//
// Output is deterministic: identical record and timestamp produce
// byte-identical lines. A measurement whose fields all fail coercion
// produces no line.
//
// Parameters:
//   - rec: Decoded record (field order preserved from the payload)
//   - ts: The shared timestamp, truncated to seconds in the output
//
// Returns:
//   - []string: One line per measurement with at least one coerced field
func (b *Builder) Build(rec decode.Record, ts time.Time) []string {
	var order []string
	grouped := make(map[string][]fieldValue)

	for _, key := range rec.Keys() {
		measurement, field, ok := b.classifier.Classify(key)
		if !ok {
			continue
		}
		// Forced-string fields are reserved in the schema but not emitted.
		if b.classifier.IsStringField(field) {
			continue
		}

		raw, _ := rec.Get(key)
		value, ok := mapping.ToNumeric(raw)
		if !ok {
			continue
		}

		if _, seen := grouped[measurement]; !seen {
			order = append(order, measurement)
		}
		grouped[measurement] = append(grouped[measurement], fieldValue{field: field, value: value})
	}

	if len(order) == 0 {
		return nil
	}

	epoch := strconv.FormatInt(ts.Unix(), 10)
	lines := make([]string, 0, len(order))
	for _, measurement := range order {
		var sb strings.Builder
		sb.WriteString(measurement)
		sb.WriteByte(' ')
		for i, fv := range grouped[measurement] {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(fv.field)
			sb.WriteByte('=')
			sb.WriteString(strconv.FormatFloat(fv.value, 'g', -1, 64))
		}
		sb.WriteByte(' ')
		sb.WriteString(epoch)
		lines = append(lines, sb.String())
	}

	return lines
}

// Measurement extracts the measurement name from a serialized line.
// Used by the write pipeline's duplicate suppression.
func Measurement(line string) string {
	if i := strings.IndexByte(line, ' '); i > 0 {
		return line[:i]
	}
	return ""
}

// Timestamp extracts the trailing unix-seconds timestamp from a serialized
// line. Returns false if the line has no parsable timestamp.
func Timestamp(line string) (time.Time, bool) {
	i := strings.LastIndexByte(line, ' ')
	if i < 0 {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(line[i+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
