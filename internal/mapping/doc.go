// Package mapping classifies raw upstream variable names into
// (measurement, field) identities.
//
// Six hand-maintained tables, loaded from YAML, each bind a set of raw
// names to field identities under one measurement. Lookup is in fixed
// table-priority order with first-match-wins; names in no table are
// expected and silently skipped by callers.
//
// The package also owns numeric coercion (ToNumeric) and the forced-string
// field allow-list, both of which shape what point building emits.
package mapping
