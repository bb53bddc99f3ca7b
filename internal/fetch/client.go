package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/config"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/logging"
)

// Client retrieves raw telemetry payloads from the upstream data service.
//
// The service speaks a legacy ASMX-style interface: GET requests with
// credentials and date parameters in the query string, returning the
// payload wrapped in a single XML <string> element. Client unwraps the
// envelope and returns the inner text, which downstream code decodes.
type Client struct {
	liveURL    string
	dailyURL   string
	liveUser   string
	livePass   string
	dailyUser  string
	dailyPass  string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	log        *logging.Logger
}

// stringEnvelope matches the upstream's XML response wrapper.
type stringEnvelope struct {
	XMLName xml.Name `xml:"string"`
	Value   string   `xml:",chardata"`
}

// New creates an upstream fetch client from configuration.
func New(cfg config.UpstreamConfig, log *logging.Logger) *Client {
	return &Client{
		liveURL:    strings.TrimRight(cfg.LiveURL, "/"),
		dailyURL:   strings.TrimRight(cfg.DailyURL, "/"),
		liveUser:   cfg.LiveUser,
		livePass:   cfg.LivePassword,
		dailyUser:  cfg.DailyUser,
		dailyPass:  cfg.DailyPassword,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.GetRetryDelay(),
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		log: log,
	}
}

// FetchLive retrieves the current live snapshot payload.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - string: Raw payload text with the XML envelope removed
//   - error: ErrEmptyPayload if the service returned nothing, or a
//     wrapped ErrFetchFailed after retries are exhausted
func (c *Client) FetchLive(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("user", c.liveUser)
	params.Set("password", c.livePass)

	return c.fetch(ctx, c.liveURL, params)
}

// FetchDaily retrieves one intra-day range of historical data for a date.
//
// The upstream splits each day into numbered ranges; a full day is
// assembled by fetching every range for that date.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - date: Calendar date to fetch
//   - rangeNum: Intra-day range number (1-based)
//
// Returns:
//   - string: Raw payload text with the XML envelope removed
//   - error: ErrEmptyPayload if the service returned nothing, or a
//     wrapped ErrFetchFailed after retries are exhausted
func (c *Client) FetchDaily(ctx context.Context, date time.Time, rangeNum int) (string, error) {
	params := url.Values{}
	params.Set("user", c.dailyUser)
	params.Set("password", c.dailyPass)
	params.Set("month", strconv.Itoa(int(date.Month())))
	params.Set("day", strconv.Itoa(date.Day()))
	params.Set("year", strconv.Itoa(date.Year()))
	params.Set("range", strconv.Itoa(rangeNum))

	return c.fetch(ctx, c.dailyURL, params)
}

// fetch issues the GET request with bounded retries and unwraps the
// response envelope. Transport errors and non-200 statuses are retried;
// an empty payload is not, since the upstream returns it deliberately
// when no data exists for the requested window.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (string, error) {
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	reqURL := endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		payload, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if attempt < attempts {
			c.log.Warn("upstream fetch failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.String("error", err.Error()),
			)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrFetchFailed, attempts, lastErr)
}

// doRequest performs a single GET and unwraps the XML <string> envelope.
func (c *Client) doRequest(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	payload := unwrapEnvelope(body)
	if strings.TrimSpace(payload) == "" {
		return "", ErrEmptyPayload
	}

	return payload, nil
}

// maxResponseSize caps upstream response bodies at 32 MiB. A full day's
// range is well under 1 MiB in practice.
const maxResponseSize = 32 << 20

// unwrapEnvelope extracts the inner text from the upstream's XML
// <string> wrapper. Payloads that arrive without the wrapper are
// returned as-is.
func unwrapEnvelope(body []byte) string {
	var env stringEnvelope
	if err := xml.Unmarshal(body, &env); err == nil {
		return env.Value
	}
	return string(body)
}
