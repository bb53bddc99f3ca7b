package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the blast-furnace pipeline.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Mappings MappingsConfig `yaml:"mappings"`
	Run      RunConfig      `yaml:"run"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UpstreamConfig contains connection settings for the furnace monitoring API.
//
// The API exposes two endpoints: a live endpoint returning the most recent
// sample set, and a daily endpoint returning one intra-day range of a given
// calendar date. Both wrap their payload in an XML <string> envelope.
type UpstreamConfig struct {
	LiveURL       string `yaml:"live_url"`
	DailyURL      string `yaml:"daily_url"`
	LiveUser      string `yaml:"live_user"`
	LivePassword  string `yaml:"live_password"`
	DailyUser     string `yaml:"daily_user"`
	DailyPassword string `yaml:"daily_password"`
	Timeout       int    `yaml:"timeout"`     // request timeout in seconds
	MaxRetries    int    `yaml:"max_retries"` // fetch attempts before giving up
	RetryDelay    int    `yaml:"retry_delay"` // seconds between fetch attempts
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// DatabaseConfig contains SQLite run-ledger settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// PipelineConfig contains write-pipeline behaviour settings.
type PipelineConfig struct {
	// BatchSize is the number of line-protocol lines per store write.
	BatchSize int `yaml:"batch_size"`

	// WriteDelay is the pause between successful batch writes, in seconds.
	// Respects the store's ingestion rate limits.
	WriteDelay int `yaml:"write_delay"`

	// MaxRetries is the number of retry attempts per failed batch.
	MaxRetries int `yaml:"max_retries"`

	// InitialBackoff is the first retry delay in milliseconds.
	// Subsequent delays double up to MaxBackoff.
	InitialBackoff int `yaml:"initial_backoff"`

	// MaxBackoff caps the retry delay, in milliseconds.
	MaxBackoff int `yaml:"max_backoff"`

	// OutputDir is where spool and audit files are written.
	OutputDir string `yaml:"output_dir"`
}

// MappingsConfig locates the field-mapping tables.
type MappingsConfig struct {
	Path string `yaml:"path"`
}

// RunConfig contains run-shaping settings shared by live and range modes.
type RunConfig struct {
	// Timezone is the IANA zone the upstream timestamps are localized in.
	Timezone string `yaml:"timezone"`

	// Cadence is the target wall-clock period between live polls, in seconds.
	Cadence int `yaml:"cadence"`

	// UnitDelay is an optional pause between (date, range) units in range
	// mode, in seconds. Zero disables it.
	UnitDelay int `yaml:"unit_delay"`

	// LogDir is where per-run log files are written.
	LogDir string `yaml:"log_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BFPIPELINE_SECTION_KEY
// For example: BFPIPELINE_DATABASE_PATH, BFPIPELINE_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Timeout:    60,
			MaxRetries: 3,
			RetryDelay: 10,
		},
		Database: DatabaseConfig{
			Path:        "./db/run_metadata.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Pipeline: PipelineConfig{
			BatchSize:      5000,
			WriteDelay:     5,
			MaxRetries:     5,
			InitialBackoff: 5000,
			MaxBackoff:     30000,
			OutputDir:      "output",
		},
		Mappings: MappingsConfig{
			Path: "configs/field_mappings.yaml",
		},
		Run: RunConfig{
			Timezone: "UTC",
			Cadence:  120,
			LogDir:   "logs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BFPIPELINE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Upstream credentials usually arrive via .env rather than config.yaml.
	if v := os.Getenv("BFPIPELINE_UPSTREAM_LIVE_URL"); v != "" {
		cfg.Upstream.LiveURL = v
	}
	if v := os.Getenv("BFPIPELINE_UPSTREAM_DAILY_URL"); v != "" {
		cfg.Upstream.DailyURL = v
	}
	if v := os.Getenv("BFPIPELINE_UPSTREAM_LIVE_USER"); v != "" {
		cfg.Upstream.LiveUser = v
	}
	if v := os.Getenv("BFPIPELINE_UPSTREAM_LIVE_PASSWORD"); v != "" {
		cfg.Upstream.LivePassword = v
	}
	if v := os.Getenv("BFPIPELINE_UPSTREAM_DAILY_USER"); v != "" {
		cfg.Upstream.DailyUser = v
	}
	if v := os.Getenv("BFPIPELINE_UPSTREAM_DAILY_PASSWORD"); v != "" {
		cfg.Upstream.DailyPassword = v
	}

	// InfluxDB
	if v := os.Getenv("BFPIPELINE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("BFPIPELINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("BFPIPELINE_INFLUXDB_ORG"); v != "" {
		cfg.InfluxDB.Org = v
	}
	if v := os.Getenv("BFPIPELINE_INFLUXDB_BUCKET"); v != "" {
		cfg.InfluxDB.Bucket = v
	}

	// Database
	if v := os.Getenv("BFPIPELINE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Pipeline
	if v := os.Getenv("BFPIPELINE_PIPELINE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.BatchSize = n
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, "pipeline.batch_size must be positive")
	}
	if c.Pipeline.MaxRetries < 0 {
		errs = append(errs, "pipeline.max_retries must not be negative")
	}
	if c.Pipeline.OutputDir == "" {
		errs = append(errs, "pipeline.output_dir is required")
	}

	if c.Mappings.Path == "" {
		errs = append(errs, "mappings.path is required")
	}

	if c.Run.Cadence <= 0 {
		errs = append(errs, "run.cadence must be positive")
	}
	if _, err := time.LoadLocation(c.Run.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("run.timezone %q is not a valid IANA zone", c.Run.Timezone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Location returns the upstream timestamp zone as a *time.Location.
// Validate guarantees the zone parses; errors here fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Run.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetCadence returns the live-mode poll period as a Duration.
func (c *Config) GetCadence() time.Duration {
	return time.Duration(c.Run.Cadence) * time.Second
}

// GetUnitDelay returns the inter-unit pause for range mode as a Duration.
func (c *Config) GetUnitDelay() time.Duration {
	return time.Duration(c.Run.UnitDelay) * time.Second
}

// GetTimeout returns the upstream request timeout as a Duration.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetRetryDelay returns the pause between fetch attempts as a Duration.
func (c *UpstreamConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// GetWriteDelay returns the inter-batch pause as a Duration.
func (c *PipelineConfig) GetWriteDelay() time.Duration {
	return time.Duration(c.WriteDelay) * time.Second
}

// GetInitialBackoff returns the first retry delay as a Duration.
func (c *PipelineConfig) GetInitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoff) * time.Millisecond
}

// GetMaxBackoff returns the retry delay cap as a Duration.
func (c *PipelineConfig) GetMaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoff) * time.Millisecond
}
