package mapping

import (
	"strconv"
	"strings"
)

// stringFields is the allow-list of field identities that must never be
// interpreted numerically, to avoid mixed-type schema conflicts in the
// store. Values classified here are currently reserved but not emitted.
var stringFields = map[string]struct{}{
	"hot_blast_temp_spare": {},
}

// table binds one mapping to its measurement.
type table struct {
	measurement string
	fields      map[string]string
}

// Classifier maps raw upstream variable names to (measurement, field)
// identities using the loaded mapping tables.
//
// Lookup is in fixed table-priority order — temperature_profile,
// process_params, heatload_delta_t, miscellaneous, cooling_water, delta_t —
// and the first table containing the key wins. This resolves the
// (unexpected but possible) case of a key appearing in more than one table.
type Classifier struct {
	tables []table
}

// NewClassifier builds a Classifier over the given tables.
func NewClassifier(t Tables) *Classifier {
	return &Classifier{
		tables: []table{
			{MeasurementTemperatureProfile, t.TemperatureProfile},
			{MeasurementProcessParams, t.ProcessParams},
			{MeasurementHeatloadDeltaT, t.HeatloadDeltaT},
			{MeasurementMiscellaneous, t.Miscellaneous},
			{MeasurementCoolingWater, t.CoolingWater},
			{MeasurementDeltaT, t.DeltaT},
		},
	}
}

// Classify resolves a raw variable name to its measurement and field
// identity.
//
// Unknown names return ok=false. That is the expected case, not an error:
// the API exposes far more variables than are modeled, and callers skip
// unclassified names silently.
//
// Parameters:
//   - rawName: Raw variable name from the upstream payload
//
// Returns:
//   - measurement: Measurement the field belongs to
//   - field: Field identity within the measurement
//   - ok: false when the name is not in any table
func (c *Classifier) Classify(rawName string) (measurement, field string, ok bool) {
	for _, t := range c.tables {
		if f, found := t.fields[rawName]; found {
			return t.measurement, f, true
		}
	}
	return "", "", false
}

// IsStringField reports whether a field identity is on the forced-string
// allow-list.
func (c *Classifier) IsStringField(field string) bool {
	_, ok := stringFields[field]
	return ok
}

// Size returns the total number of mapped variable names across all tables.
func (c *Classifier) Size() int {
	n := 0
	for _, t := range c.tables {
		n += len(t.fields)
	}
	return n
}

// ToNumeric coerces a raw field value to a 64-bit float.
//
// Whitespace is trimmed first; an empty or all-whitespace value is "no
// value" rather than zero, and a value that does not parse as a float is
// also "no value". Absent values are omitted from emitted points, never
// written as zero or null.
//
// Parameters:
//   - value: Raw string value from the record
//
// Returns:
//   - float64: Coerced value
//   - bool: false when the value is absent or unparsable
func ToNumeric(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}
