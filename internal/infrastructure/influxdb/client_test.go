package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/config"
	"github.com/furnaceworks/bf-pipeline/internal/infrastructure/influxdb"
)

// fakeInflux is a minimal HTTP stand-in for an InfluxDB v2 server.
// It answers /ping and records write bodies.
type fakeInflux struct {
	mu         sync.Mutex
	writes     []string
	failWrites bool
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		fail := f.failWrites
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (f *fakeInflux) lastWrite() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return ""
	}
	return f.writes[len(f.writes)-1]
}

func newTestClient(t *testing.T, fake *fakeInflux) *influxdb.Client {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := influxdb.Connect(config.InfluxDBConfig{
		URL:    srv.URL,
		Token:  "test-token",
		Org:    "furnace",
		Bucket: "bf2",
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestConnect_MissingURL(t *testing.T) {
	_, err := influxdb.Connect(config.InfluxDBConfig{})
	if err == nil {
		t.Fatal("Connect() should return error without URL")
	}
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := influxdb.Connect(config.InfluxDBConfig{URL: "http://127.0.0.1:59999"})
	if err == nil {
		t.Fatal("Connect() should return error for unreachable server")
	}
}

func TestWriteBatch(t *testing.T) {
	fake := &fakeInflux{}
	client := newTestClient(t, fake)

	lines := []string{
		"process_params o2_enrichment=3.4 1748494800",
		"process_params top_pressure=1.62 1748494800",
	}
	if err := client.WriteBatch(context.Background(), lines); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}

	got := fake.lastWrite()
	if got != strings.Join(lines, "\n") {
		t.Errorf("write body = %q, want %q", got, strings.Join(lines, "\n"))
	}
}

func TestWriteBatch_EmptyIsNoop(t *testing.T) {
	fake := &fakeInflux{}
	client := newTestClient(t, fake)

	if err := client.WriteBatch(context.Background(), nil); err != nil {
		t.Fatalf("WriteBatch(nil) error = %v", err)
	}
	if fake.lastWrite() != "" {
		t.Errorf("WriteBatch(nil) wrote %q, want no write", fake.lastWrite())
	}
}

func TestWriteBatch_ServerError(t *testing.T) {
	fake := &fakeInflux{failWrites: true}
	client := newTestClient(t, fake)

	err := client.WriteBatch(context.Background(), []string{"delta_t dt_q1=4.5 1748494800"})
	if err == nil {
		t.Fatal("WriteBatch() = nil, want error on server failure")
	}
	if !errors.Is(err, influxdb.ErrWriteFailed) {
		t.Errorf("WriteBatch() error = %v, want ErrWriteFailed", err)
	}
}

func TestHealthCheck(t *testing.T) {
	fake := &fakeInflux{}
	client := newTestClient(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
