// Package config loads the revforecast TOML configuration
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/event"
	"github.com/aouyang1/revforecast/forecast"
	"github.com/aouyang1/revforecast/telemetry"
)

var (
	ErrNoListenAddress    = errors.New("no listen address")
	ErrNonPositiveUpload  = errors.New("max upload size must be positive")
	ErrNonPositiveRate    = errors.New("rate limit must be positive")
	ErrNonPositiveTimeout = errors.New("timeout must be positive")
	ErrUnknownLogLevel    = errors.New("unknown log level")
	ErrUnknownLogFormat   = errors.New("unknown log format")
	ErrUnknownCountry     = errors.New("unknown holiday country")
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Duration is a time.Duration written as a string such as "30s"
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Config holds all revforecast configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Forecast  ForecastConfig  `toml:"forecast"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// ServerConfig holds the web server settings
type ServerConfig struct {
	Listen            string   `toml:"listen"`
	MaxUploadMB       int64    `toml:"max_upload_mb"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	ReadTimeout       Duration `toml:"read_timeout"`
	WriteTimeout      Duration `toml:"write_timeout"`
}

// MaxUploadBytes returns the upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

type ForecastConfig struct {
	DefaultMonths int `toml:"default_months"`

	// HolidayCountry adds the holidays of a country calendar to the model. Empty disables.
	HolidayCountry string `toml:"holiday_country"`
}

// Horizon returns the default forecast horizon
func (f ForecastConfig) Horizon() revforecast.Horizon {
	return revforecast.Horizon(f.DefaultMonths)
}

// Options returns the forecast engine options for the settings
func (f ForecastConfig) Options() *forecast.Options {
	opt := forecast.NewDefaultOptions()
	opt.HolidayCountry = f.HolidayCountry
	return opt
}

// Factory returns the model factory every run uses
func (f ForecastConfig) Factory() revforecast.ModelFactory {
	return revforecast.NewModelFactory(f.Options())
}

func (f ForecastConfig) validateCountry() error {
	if f.HolidayCountry == "" {
		return nil
	}
	for _, c := range event.Countries() {
		if c == f.HolidayCountry {
			return nil
		}
	}
	return fmt.Errorf("%q, expected one of %s, %w",
		f.HolidayCountry, strings.Join(event.Countries(), ", "), ErrUnknownCountry)
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	ServiceName  string  `toml:"service_name"`
	Insecure     bool    `toml:"insecure"`
	SamplingRate float64 `toml:"sampling_rate"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:            ":8080",
			MaxUploadMB:       10,
			RequestsPerSecond: 2,
			Burst:             4,
			ReadTimeout:       Duration{30 * time.Second},
			WriteTimeout:      Duration{5 * time.Minute},
		},
		Forecast: ForecastConfig{
			DefaultMonths: int(revforecast.DefaultHorizon),
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "revforecast",
			Insecure:     true,
			SamplingRate: 1.0,
		},
	}
}

// Dir returns the XDG config directory
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revforecast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "revforecast")
}

// Path returns the default config file path
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file over the defaults. An empty path reads the default path and
// a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("unable to read config, %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create config dir, %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create config file, %w", err)
	}
	defer f.Close()

	return Encode(f, cfg)
}

// Encode writes the config as TOML
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks every setting
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return ErrNoListenAddress
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb of %d, %w", c.Server.MaxUploadMB, ErrNonPositiveUpload)
	}
	if c.Server.RequestsPerSecond <= 0 || c.Server.Burst <= 0 {
		return fmt.Errorf("requests_per_second of %f and burst of %d, %w",
			c.Server.RequestsPerSecond, c.Server.Burst, ErrNonPositiveRate)
	}
	if c.Server.ReadTimeout.Duration <= 0 || c.Server.WriteTimeout.Duration <= 0 {
		return fmt.Errorf("read_timeout of %s and write_timeout of %s, %w",
			c.Server.ReadTimeout, c.Server.WriteTimeout, ErrNonPositiveTimeout)
	}
	if err := c.Forecast.Horizon().Validate(); err != nil {
		return fmt.Errorf("default_months, %w", err)
	}
	if err := c.Forecast.validateCountry(); err != nil {
		return fmt.Errorf("holiday_country, %w", err)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%q, %w", c.Log.Format, ErrUnknownLogFormat)
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("%f, %w", c.Telemetry.SamplingRate, telemetry.ErrInvalidSamplingRate)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return level, fmt.Errorf("%q, %w", l.Level, ErrUnknownLogLevel)
	}
	return level, nil
}

// Logger builds a structured logger writing to w
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch l.Format {
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case LogFormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%q, %w", l.Format, ErrUnknownLogFormat)
	}
}

// Tracing converts the telemetry settings
func (t TelemetryConfig) Tracing(version string) *telemetry.Config {
	cfg := telemetry.NewDefaultConfig()
	cfg.Endpoint = t.OTLPEndpoint
	cfg.Insecure = t.Insecure
	cfg.SamplingRate = t.SamplingRate
	if t.ServiceName != "" {
		cfg.ServiceName = t.ServiceName
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}
