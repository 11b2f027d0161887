package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-covid-reports/internal/dashboard"
	"github.com/deploymenttheory/go-covid-reports/internal/downloader"
)

const (
	// DefaultListingURL is the GitHub contents API listing of the JHU CSSE daily reports
	DefaultListingURL = "https://api.github.com/repos/CSSEGISandData/COVID-19/contents/csse_covid_19_data/csse_covid_19_daily_reports"
	DefaultUserAgent  = "Covid19DataDownloader/1.0"
)

// Config holds the application configuration
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Download Download `yaml:"download"`
	Chart    Chart    `yaml:"chart"`
}

// Download configures the retrieval run
type Download struct {
	ListingURL     string        `yaml:"listing_url"`
	OutputDir      string        `yaml:"output_dir"`
	UserAgent      string        `yaml:"user_agent"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	FileDelay      time.Duration `yaml:"file_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Chart configures the presentation run
type Chart struct {
	InputDir   string   `yaml:"input_dir"`
	OutputFile string   `yaml:"output_file"`
	Regions    []string `yaml:"regions"`
}

// Default returns the built-in configuration
func Default() Config {
	policy := downloader.DefaultOptions()
	return Config{
		LogLevel: "info",
		Download: Download{
			ListingURL:     DefaultListingURL,
			OutputDir:      "covid_data",
			UserAgent:      DefaultUserAgent,
			MaxAttempts:    policy.MaxAttempts,
			RetryDelay:     policy.RetryDelay,
			FileDelay:      policy.FileDelay,
			RequestTimeout: 2 * time.Minute,
		},
		Chart: Chart{
			InputDir:   "covid_data",
			OutputFile: dashboard.DefaultOutputFile,
		},
	}
}

// Load reads a YAML file on top of the defaults. Keys absent from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	d := c.Download
	switch {
	case d.ListingURL == "":
		return errors.New("download.listing_url must not be empty")
	case d.OutputDir == "":
		return errors.New("download.output_dir must not be empty")
	case d.MaxAttempts < 1:
		return fmt.Errorf("download.max_attempts must be at least 1, got %d", d.MaxAttempts)
	case d.RetryDelay < 0 || d.FileDelay < 0:
		return errors.New("download delays must not be negative")
	case d.RequestTimeout < 0:
		return errors.New("download.request_timeout must not be negative")
	}

	if c.Chart.InputDir == "" {
		return errors.New("chart.input_dir must not be empty")
	}
	if c.Chart.OutputFile == "" {
		return errors.New("chart.output_file must not be empty")
	}
	return nil
}
