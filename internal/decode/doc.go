// Package decode parses raw upstream payloads into ordered records.
//
// The furnace monitoring API returns its sample set as a literal list of
// flat mappings (single-quoted keys, string or number values), sometimes
// preceded by embedded script markup. Decode strips any <script> span and
// parses the remainder with a strict recursive-descent parser — the grammar
// is the upstream's dialect, not JSON, and a payload either decodes in full
// or fails with ErrMalformedPayload.
//
// Records preserve field insertion order; downstream point building depends
// on that order for deterministic serialization.
package decode
