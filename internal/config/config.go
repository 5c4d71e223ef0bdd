package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultDataFile is the ETIM export read when nothing else is configured
const DefaultDataFile = "ETIMTxnData_2025-9-6_1748.csv"

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string `yaml:"listen_addr" validate:"required"`
	Debug      bool   `yaml:"debug"`

	// Input and presentation
	DataFile           string `yaml:"data_file" validate:"required"`
	TemplatesDirectory string `yaml:"templates_directory" validate:"required"`
	CurrencySymbol     string `yaml:"currency_symbol"`

	// Hour window shown when the request does not set one
	DefaultStartHour int `yaml:"default_start_hour" validate:"gte=0,lte=24"`
	DefaultEndHour   int `yaml:"default_end_hour" validate:"gte=0,lte=24,gtfield=DefaultStartHour"`

	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Passphrase unlocks an encrypted data file; never read from YAML
	Passphrase string `yaml:"-"`
}

// TelemetryConfig controls OTLP metric export
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint" validate:"required_if=Enabled true,omitempty,url"`
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:         ":8080",
		Debug:              false,
		DataFile:           filepath.Join(wd, DefaultDataFile),
		TemplatesDirectory: filepath.Join(wd, "web", "templates"),
		CurrencySymbol:     "₹",
		DefaultStartHour:   6,
		DefaultEndHour:     18,
		Telemetry: TelemetryConfig{
			Interval: 60 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// RIDERSHIP_CONFIG, and environment overrides, then validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("RIDERSHIP_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays values from a YAML file onto the current config
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: config file %s not found, using defaults", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file itself
	base := filepath.Dir(path)
	if c.DataFile != "" && !filepath.IsAbs(c.DataFile) {
		c.DataFile = filepath.Join(base, c.DataFile)
	}
	if c.TemplatesDirectory != "" && !filepath.IsAbs(c.TemplatesDirectory) {
		c.TemplatesDirectory = filepath.Join(base, c.TemplatesDirectory)
	}
	return nil
}

// applyEnv overrides settings from RIDERSHIP_* environment variables
func (c *Config) applyEnv() {
	if addr := os.Getenv("RIDERSHIP_LISTEN_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if debug := os.Getenv("RIDERSHIP_DEBUG"); debug == "true" || debug == "1" {
		c.Debug = true
	}
	if dataFile := os.Getenv("RIDERSHIP_DATA_FILE"); dataFile != "" {
		c.DataFile = dataFile
	}
	if templatesDir := os.Getenv("RIDERSHIP_TEMPLATES_DIR"); templatesDir != "" {
		c.TemplatesDirectory = templatesDir
	}
	if passphrase := os.Getenv("RIDERSHIP_PASSPHRASE"); passphrase != "" {
		c.Passphrase = passphrase
	}
	if endpoint := os.Getenv("RIDERSHIP_OTEL_ENDPOINT"); endpoint != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
	}
	if start := os.Getenv("RIDERSHIP_START_HOUR"); start != "" {
		if h, err := strconv.Atoi(start); err == nil {
			c.DefaultStartHour = h
		} else {
			log.Printf("Warning: ignoring RIDERSHIP_START_HOUR=%q: %v", start, err)
		}
	}
	if end := os.Getenv("RIDERSHIP_END_HOUR"); end != "" {
		if h, err := strconv.Atoi(end); err == nil {
			c.DefaultEndHour = h
		} else {
			log.Printf("Warning: ignoring RIDERSHIP_END_HOUR=%q: %v", end, err)
		}
	}
	if c.Telemetry.Interval <= 0 {
		c.Telemetry.Interval = 60 * time.Second
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
