package influxdb

import (
	"context"
	"fmt"
	"time"
)

// Exists reports whether any point is already stored for the measurement at
// the given timestamp.
//
// The pipeline consults this before writing when override mode is disabled,
// suppressing duplicate points instead of relying on the store's
// replace-on-duplicate behaviour.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - measurement: Measurement name to probe
//   - ts: Point timestamp (seconds resolution)
//
// Returns:
//   - bool: true if at least one point exists
//   - error: If the query fails
func (c *Client) Exists(ctx context.Context, measurement string, ts time.Time) (bool, error) {
	start := ts.UTC().Truncate(time.Second)
	stop := start.Add(time.Second)

	query := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> limit(n: 1)`,
		c.cfg.Bucket,
		start.Format(time.RFC3339),
		stop.Format(time.RFC3339),
		measurement,
	)

	result, err := c.queryAPI.Query(ctx, query)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close() //nolint:errcheck // read errors surface via result.Err

	found := result.Next()
	if result.Err() != nil {
		return false, fmt.Errorf("%w: %w", ErrQueryFailed, result.Err())
	}

	return found, nil
}
