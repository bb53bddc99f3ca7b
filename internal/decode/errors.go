package decode

import "errors"

// Sentinel errors for payload decoding.
var (
	// ErrMalformedPayload indicates the cleaned payload is not a
	// well-formed list-of-mappings literal. The whole decode fails;
	// no partial records are returned.
	ErrMalformedPayload = errors.New("decode: malformed payload")

	// ErrNoTimestamp indicates a record has no timestamp field.
	// The record is processable but cannot be written.
	ErrNoTimestamp = errors.New("decode: record has no timestamp")
)
