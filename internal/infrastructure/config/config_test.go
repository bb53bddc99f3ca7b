package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes a YAML config to a temp dir and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "# empty config, defaults apply\n{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.BatchSize != 5000 {
		t.Errorf("Pipeline.BatchSize = %d, want 5000", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.MaxRetries != 5 {
		t.Errorf("Pipeline.MaxRetries = %d, want 5", cfg.Pipeline.MaxRetries)
	}
	if cfg.Run.Cadence != 120 {
		t.Errorf("Run.Cadence = %d, want 120", cfg.Run.Cadence)
	}
	if cfg.Run.Timezone != "UTC" {
		t.Errorf("Run.Timezone = %q, want UTC", cfg.Run.Timezone)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  batch_size: 1000
  write_delay: 2
run:
  timezone: Asia/Kolkata
  cadence: 60
influxdb:
  url: http://localhost:8086
  org: furnace
  bucket: bf2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.BatchSize != 1000 {
		t.Errorf("Pipeline.BatchSize = %d, want 1000", cfg.Pipeline.BatchSize)
	}
	if got := cfg.Pipeline.GetWriteDelay(); got != 2*time.Second {
		t.Errorf("GetWriteDelay() = %v, want 2s", got)
	}
	if cfg.Run.Timezone != "Asia/Kolkata" {
		t.Errorf("Run.Timezone = %q, want Asia/Kolkata", cfg.Run.Timezone)
	}
	if cfg.Location().String() != "Asia/Kolkata" {
		t.Errorf("Location() = %q, want Asia/Kolkata", cfg.Location())
	}
	if cfg.InfluxDB.Bucket != "bf2" {
		t.Errorf("InfluxDB.Bucket = %q, want bf2", cfg.InfluxDB.Bucket)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BFPIPELINE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("BFPIPELINE_DATABASE_PATH", "/tmp/testledger.db")
	t.Setenv("BFPIPELINE_PIPELINE_BATCH_SIZE", "250")

	path := writeConfigFile(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want secret-token", cfg.InfluxDB.Token)
	}
	if cfg.Database.Path != "/tmp/testledger.db" {
		t.Errorf("Database.Path = %q, want /tmp/testledger.db", cfg.Database.Path)
	}
	if cfg.Pipeline.BatchSize != 250 {
		t.Errorf("Pipeline.BatchSize = %d, want 250", cfg.Pipeline.BatchSize)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Pipeline.BatchSize = 0 },
			wantErr: "pipeline.batch_size",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Run.Timezone = "Mars/Olympus" },
			wantErr: "run.timezone",
		},
		{
			name:    "zero cadence",
			mutate:  func(c *Config) { c.Run.Cadence = 0 },
			wantErr: "run.cadence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() = nil error for missing file, want error")
	}
}
