// Package runner orchestrates the fetch, decode, transform and write
// cycle in two modes.
//
// Live mode polls the upstream snapshot endpoint on a fixed cadence,
// compensating the inter-cycle sleep for processing time. A fetch
// failure stops the process, because a missed live snapshot can never be
// refetched.
//
// Range mode sweeps a span of calendar dates, fetching both intra-day
// ranges for each. Every (date, range) unit is isolated: failures are
// logged and ledgered without stopping the sweep. The current UTC date
// is processed but never ledgered, since upstream data for it is still
// accumulating.
//
// Each unit gets its own log file under the configured log directory and
// a UUID run identifier that appears in both the log lines and the
// ledger parameters.
package runner
