// Package config loads service configuration from a YAML file overlaid by
// TAQBARS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // session locations resolve without system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"taq-bars/internal/domain"
	"taq-bars/internal/sampling"
)

// EnvPrefix prefixes every environment variable, e.g. TAQBARS_STORAGE_POSTGRES_DSN.
const EnvPrefix = "TAQBARS"

// Config represents the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Session  SessionConfig  `yaml:"session" envconfig:"SESSION"`
	Sampling SamplingConfig `yaml:"sampling" envconfig:"SAMPLING"`
	Runner   RunnerConfig   `yaml:"runner" envconfig:"RUNNER"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// StorageConfig selects the trade and bar stores.
type StorageConfig struct {
	UseMemory     bool   `yaml:"use_memory" envconfig:"USE_MEMORY"`
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN" validate:"required_if=UseMemory false"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN" validate:"required_if=UseMemory false"`
	MaxConns      int32  `yaml:"max_conns" envconfig:"MAX_CONNS" validate:"gte=0"`
	Migrate       bool   `yaml:"migrate" envconfig:"MIGRATE"`
}

// SessionConfig describes the trading session trades belong to.
type SessionConfig struct {
	Location          string   `yaml:"location" envconfig:"LOCATION" validate:"required"`
	Symbols           []string `yaml:"symbols" envconfig:"SYMBOLS"`
	ExcludeConditions []string `yaml:"exclude_conditions" envconfig:"EXCLUDE_CONDITIONS"`
	FilterHours       bool     `yaml:"filter_hours" envconfig:"FILTER_HOURS"`
	Open              string   `yaml:"open" envconfig:"OPEN" validate:"required"`
	Close             string   `yaml:"close" envconfig:"CLOSE" validate:"required"`
	SkipInvalid       bool     `yaml:"skip_invalid" envconfig:"SKIP_INVALID"`
}

// SamplingConfig mirrors sampling.Config in file/env friendly types.
type SamplingConfig struct {
	Policies []string `yaml:"policies" envconfig:"POLICIES" validate:"dive,oneof=TIME TICK VOLUME DOLLAR"`

	WindowSize          int    `yaml:"window_size" envconfig:"WINDOW_SIZE" validate:"gt=0"`
	WindowUnit          string `yaml:"window_unit" envconfig:"WINDOW_UNIT" validate:"required"`
	TimeIncludeVolume   bool   `yaml:"time_include_volume" envconfig:"TIME_INCLUDE_VOLUME"`
	TickCount           int    `yaml:"tick_count" envconfig:"TICK_COUNT" validate:"gt=0"`
	TickIncludeVolume   bool   `yaml:"tick_include_volume" envconfig:"TICK_INCLUDE_VOLUME"`
	VolumeThreshold     int64  `yaml:"volume_threshold" envconfig:"VOLUME_THRESHOLD" validate:"gt=0"`
	DollarThreshold     string `yaml:"dollar_threshold" envconfig:"DOLLAR_THRESHOLD" validate:"required,numeric"`
	EmitPartialTrailing bool   `yaml:"emit_partial_trailing" envconfig:"EMIT_PARTIAL_TRAILING"`
}

// RunnerConfig controls batch resampling.
type RunnerConfig struct {
	Concurrency  int  `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=1,lte=256"`
	SkipExisting bool `yaml:"skip_existing" envconfig:"SKIP_EXISTING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	MetricsAddr     string        `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxTrades       int           `yaml:"max_trades" envconfig:"MAX_TRADES" validate:"gt=0"`
}

// ExportConfig selects the bar file format and directory.
type ExportConfig struct {
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv json parquet"`
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Migrate: true},
		Session: SessionConfig{
			Location: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
		},
		Sampling: SamplingConfig{
			Policies:        []string{"TIME", "TICK", "VOLUME", "DOLLAR"},
			WindowSize:      sampling.DefaultTimeWindowSize,
			WindowUnit:      string(sampling.DefaultTimeWindowUnit),
			TickCount:       sampling.DefaultTickCount,
			VolumeThreshold: sampling.DefaultVolumeThreshold,
			DollarThreshold: fmt.Sprint(sampling.DefaultDollarThreshold),
		},
		Runner: RunnerConfig{Concurrency: 4},
		Server: ServerConfig{
			Addr:            ":8080",
			MetricsAddr:     ":9090",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxTrades:       1_000_000,
		},
		Export: ExportConfig{Format: "csv", Dir: "output"},
	}
}

// Override adjusts a loaded configuration before validation, e.g. from
// command-line flags.
type Override func(*Config)

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment variables, then overrides.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	for _, o := range overrides {
		o(cfg)
	}

	cfg.Sampling.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (s *SamplingConfig) normalize() {
	for i, p := range s.Policies {
		s.Policies[i] = strings.ToUpper(strings.TrimSpace(p))
	}
}

var validate = validator.New()

// Validate checks struct tags and the fields that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.ToSampling(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.TradingHours(); err != nil {
		return err
	}
	return nil
}

// ToSampling converts the sampling section to sampling.Config.
func (c *Config) ToSampling() (sampling.Config, error) {
	s := c.Sampling
	unit, err := sampling.ParseWindowUnit(s.WindowUnit)
	if err != nil {
		return sampling.Config{}, err
	}
	dollar, err := decimal.NewFromString(s.DollarThreshold)
	if err != nil {
		return sampling.Config{}, fmt.Errorf("%w: dollar threshold %q: %v", sampling.ErrInvalidConfiguration, s.DollarThreshold, err)
	}

	out := sampling.Config{
		Time:   sampling.TimeConfig{WindowSize: s.WindowSize, WindowUnit: unit, IncludeVolume: s.TimeIncludeVolume},
		Tick:   sampling.TickConfig{TickCount: s.TickCount, IncludeVolume: s.TickIncludeVolume},
		Volume: sampling.VolumeConfig{Threshold: s.VolumeThreshold, EmitPartialTrailingBar: s.EmitPartialTrailing},
		Dollar: sampling.DollarConfig{Threshold: dollar, EmitPartialTrailingBar: s.EmitPartialTrailing},
	}
	for _, kind := range domain.AllPolicies {
		if err := out.Validate(kind); err != nil {
			return sampling.Config{}, err
		}
	}
	return out, nil
}

// Policies returns the configured policies in canonical order.
func (c *Config) Policies() []domain.PolicyKind {
	want := make(map[domain.PolicyKind]bool, len(c.Sampling.Policies))
	for _, p := range c.Sampling.Policies {
		want[domain.PolicyKind(p)] = true
	}
	var out []domain.PolicyKind
	for _, kind := range domain.AllPolicies {
		if want[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// Location loads the session time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Session.Location)
	if err != nil {
		return nil, fmt.Errorf("session location %q: %w", c.Session.Location, err)
	}
	return loc, nil
}

// TradingHours returns session open and close as offsets from midnight.
func (c *Config) TradingHours() (openAt, closeAt time.Duration, err error) {
	if openAt, err = parseClock(c.Session.Open); err != nil {
		return 0, 0, fmt.Errorf("session open: %w", err)
	}
	if closeAt, err = parseClock(c.Session.Close); err != nil {
		return 0, 0, fmt.Errorf("session close: %w", err)
	}
	if closeAt <= openAt {
		return 0, 0, fmt.Errorf("session close %s must be after open %s", c.Session.Close, c.Session.Open)
	}
	return openAt, closeAt, nil
}

// parseClock parses "HH:MM" or "HH:MM:SS".
func parseClock(s string) (time.Duration, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}
