package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrWriteFailed) {
//	    // Mark the run failed, keep prior batches
//	}
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a batch write was not acknowledged.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrQueryFailed indicates an existence query failed.
	ErrQueryFailed = errors.New("influxdb: query failed")
)
