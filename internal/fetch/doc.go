// Package fetch retrieves raw telemetry payloads from the upstream
// blast-furnace data service.
//
// Two endpoints are exposed upstream: a live snapshot feed and a daily
// historical feed split into intra-day ranges. Both return the payload
// wrapped in a legacy XML <string> envelope, which this package strips
// before handing the text to the decoder.
//
// Requests are retried a bounded number of times with a fixed delay.
// An empty payload is reported as ErrEmptyPayload without retrying,
// since the upstream returns it deliberately when no data exists.
package fetch
