package ledger

import "errors"

// ErrNotFound indicates no run record exists for the requested key.
var ErrNotFound = errors.New("ledger: run record not found")
