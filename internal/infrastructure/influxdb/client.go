package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Client wraps the InfluxDB v2 client for the write pipeline.
//
// It uses the blocking write API deliberately: the pipeline owns batching
// and retry as an explicit state machine, so each WriteBatch call must
// report success or failure synchronously rather than via async callbacks.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	cfg      config.InfluxDBConfig
}

// Connect establishes a connection to the InfluxDB server.
//
// It performs the following setup:
//  1. Creates the client with token authentication and seconds precision
//  2. Verifies connectivity with a ping
//  3. Configures the blocking write API and the query API
//
// Parameters:
//   - cfg: InfluxDB configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the connection cannot be verified
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: url not configured", ErrConnectionFailed)
	}

	// Points carry unix-seconds timestamps; the store's replace-on-duplicate
	// semantics key on (measurement, tags, timestamp) at this precision.
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return &Client{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		cfg:      cfg,
	}, nil
}

// Close shuts down the InfluxDB connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// WriteBatch writes one batch of line-protocol records synchronously.
//
// The call blocks until the server acknowledges the batch or fails. Retry
// is the caller's responsibility; this method makes exactly one attempt so
// the pipeline's retry loop stays observable.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - lines: Line-protocol records, one point per line
//
// Returns:
//   - error: nil on acknowledgement, otherwise the write failure
func (c *Client) WriteBatch(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	if err := c.writeAPI.WriteRecord(ctx, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}
