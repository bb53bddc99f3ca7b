// Package influxdb provides InfluxDB connectivity for the write pipeline.
//
// It wraps the official influxdb-client-go v2 library with a synchronous
// batch-write surface and an existence probe.
//
// # Purpose
//
// The pipeline serializes furnace telemetry into line protocol and hands it
// here in batches. Two capabilities are exposed:
//
//   - WriteBatch: one blocking write per batch, exactly one attempt, so the
//     pipeline's bounded retry/backoff loop owns failure handling.
//   - Exists: a Flux query probing for a point at (measurement, timestamp),
//     backing duplicate suppression when override mode is off.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WriteBatch(ctx, lines)
//
// # Precision
//
// The client writes with seconds precision. Points for the same
// (measurement, tags, timestamp) replace prior values, which is what makes
// backfill overwrites idempotent.
package influxdb
