package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Diagnostics.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Sources   SourcesConfig   `yaml:"sources"`
	Diagnosis DiagnosisConfig `yaml:"diagnosis"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourcesConfig configures where the collaborator data comes from.
type SourcesConfig struct {
	// LocalDir is a directory of JSON fixture files (devices.json,
	// events.json) served as the device source when no cloud connector
	// is wired. Empty disables the local source.
	LocalDir string `yaml:"local_dir"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings for the device
// catalogue snapshot.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// DiagnosisConfig contains workflow and context-gathering settings.
type DiagnosisConfig struct {
	// GatherTimeout is the hard wall-clock ceiling for the whole
	// gathering stage (seconds). On expiry, partial results are final.
	GatherTimeout int `yaml:"gather_timeout"`

	// CallTimeout is the per-collaborator-call timeout (seconds).
	CallTimeout int `yaml:"call_timeout"`

	// RetryMaxAttempts bounds retries for rate-limited or transient
	// failures. The first attempt counts, so 3 means at most 2 retries.
	RetryMaxAttempts int `yaml:"retry_max_attempts"`

	// RetryInitialDelay is the initial backoff delay (milliseconds).
	RetryInitialDelay int `yaml:"retry_initial_delay"`

	// RetryMaxDelay caps the backoff delay (milliseconds).
	RetryMaxDelay int `yaml:"retry_max_delay"`

	// EventWindow is how far back to request event history (hours).
	EventWindow int `yaml:"event_window"`

	// SimilarK is how many nearest-neighbour devices to request.
	SimilarK int `yaml:"similar_k"`
}

// DetectorsConfig contains pattern detector thresholds.
//
// The default values are empirical. The source data behind them is
// anecdotal, so they are tunables rather than constants; change them in
// config.yaml, not here.
type DetectorsConfig struct {
	// TriggerFastBand: an OFF→ON re-activation faster than this (seconds)
	// scores the high confidence band.
	TriggerFastBand float64 `yaml:"trigger_fast_band"`

	// TriggerSlowBand: re-activation faster than this but slower than
	// TriggerFastBand scores the lower band. Gaps at or beyond this are
	// not reported.
	TriggerSlowBand float64 `yaml:"trigger_slow_band"`

	// RapidWindow is the sliding window for rapid-change detection (seconds).
	RapidWindow int `yaml:"rapid_window"`

	// RapidMinTransitions is the transition count within one window that
	// qualifies as instability.
	RapidMinTransitions int `yaml:"rapid_min_transitions"`

	// GapCeiling: silence between consecutive events longer than this
	// (seconds) is reported as a connectivity gap.
	GapCeiling int `yaml:"gap_ceiling"`
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
// Environment variables follow the pattern: GRAYDIAG_SECTION_KEY
// For example: GRAYDIAG_DATABASE_PATH, GRAYDIAG_API_PORT
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
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic Diagnostics",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "data/graydiag.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8091,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 60,
				Idle:  120,
			},
		},
		Diagnosis: DiagnosisConfig{
			GatherTimeout:     30,
			CallTimeout:       10,
			RetryMaxAttempts:  3,
			RetryInitialDelay: 200,
			RetryMaxDelay:     5000,
			EventWindow:       24,
			SimilarK:          5,
		},
		Detectors: DetectorsConfig{
			TriggerFastBand:     5,
			TriggerSlowBand:     60,
			RapidWindow:         600,
			RapidMinTransitions: 4,
			GapCeiling:          3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only operationally useful overrides are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYDIAG_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GRAYDIAG_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRAYDIAG_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("GRAYDIAG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.Diagnosis.GatherTimeout < 1 {
		errs = append(errs, "diagnosis.gather_timeout must be at least 1 second")
	}
	if c.Diagnosis.CallTimeout < 1 {
		errs = append(errs, "diagnosis.call_timeout must be at least 1 second")
	}
	if c.Diagnosis.RetryMaxAttempts < 1 {
		errs = append(errs, "diagnosis.retry_max_attempts must be at least 1")
	}
	if c.Diagnosis.SimilarK < 0 {
		errs = append(errs, "diagnosis.similar_k must not be negative")
	}
	if c.Detectors.TriggerFastBand <= 0 {
		errs = append(errs, "detectors.trigger_fast_band must be positive")
	}
	if c.Detectors.TriggerSlowBand <= c.Detectors.TriggerFastBand {
		errs = append(errs, "detectors.trigger_slow_band must be greater than trigger_fast_band")
	}
	if c.Detectors.RapidWindow < 1 {
		errs = append(errs, "detectors.rapid_window must be at least 1 second")
	}
	if c.Detectors.RapidMinTransitions < 2 {
		errs = append(errs, "detectors.rapid_min_transitions must be at least 2")
	}
	if c.Detectors.GapCeiling < 1 {
		errs = append(errs, "detectors.gap_ceiling must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GatherTimeoutDuration returns the gathering stage wall-clock ceiling as a Duration.
func (d DiagnosisConfig) GatherTimeoutDuration() time.Duration {
	return time.Duration(d.GatherTimeout) * time.Second
}

// CallTimeoutDuration returns the per-call timeout as a Duration.
func (d DiagnosisConfig) CallTimeoutDuration() time.Duration {
	return time.Duration(d.CallTimeout) * time.Second
}

// RetryInitialDelayDuration returns the initial backoff delay as a Duration.
func (d DiagnosisConfig) RetryInitialDelayDuration() time.Duration {
	return time.Duration(d.RetryInitialDelay) * time.Millisecond
}

// RetryMaxDelayDuration returns the backoff delay cap as a Duration.
func (d DiagnosisConfig) RetryMaxDelayDuration() time.Duration {
	return time.Duration(d.RetryMaxDelay) * time.Millisecond
}

// EventWindowDuration returns the event history window as a Duration.
func (d DiagnosisConfig) EventWindowDuration() time.Duration {
	return time.Duration(d.EventWindow) * time.Hour
}

// TriggerFastBandDuration returns the fast trigger band as a Duration.
func (d DetectorsConfig) TriggerFastBandDuration() time.Duration {
	return time.Duration(d.TriggerFastBand * float64(time.Second))
}

// TriggerSlowBandDuration returns the slow trigger band as a Duration.
func (d DetectorsConfig) TriggerSlowBandDuration() time.Duration {
	return time.Duration(d.TriggerSlowBand * float64(time.Second))
}

// RapidWindowDuration returns the rapid-change window as a Duration.
func (d DetectorsConfig) RapidWindowDuration() time.Duration {
	return time.Duration(d.RapidWindow) * time.Second
}

// GapCeilingDuration returns the connectivity gap ceiling as a Duration.
func (d DetectorsConfig) GapCeilingDuration() time.Duration {
	return time.Duration(d.GapCeiling) * time.Second
}
