package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/quantfold/backtestctl/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Report  ReportConfig  `mapstructure:"report"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServiceConfig locates the remote backtest service. The base URL configured
// here is the only place the client knows the service host; every component
// receives it through the gateway constructor.
type ServiceConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
}

// ReportConfig controls where exported report artifacts are written.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// MetricsConfig holds metrics configuration. The endpoint is only served
// while the interactive UI is running.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Path       string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      30 * time.Second,
			RetryMax:     3,
			RetryWaitMin: 500 * time.Millisecond,
			RetryWaitMax: 5 * time.Second,
		},
		Report: ReportConfig{
			OutputDir: ".",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("service base_url is required"))
	}

	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("service base_url must be an absolute URL, got %q", c.Service.BaseURL))
	}

	if c.Service.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("service timeout must be positive, got %s", c.Service.Timeout))
	}

	if c.Service.RetryMax < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retry_max cannot be negative, got %d", c.Service.RetryMax))
	}

	if c.Service.RetryWaitMin > c.Service.RetryWaitMax {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retry_wait_min %s exceeds retry_wait_max %s",
				c.Service.RetryWaitMin, c.Service.RetryWaitMax))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("metrics listen_addr required when metrics are enabled"))
	}

	return nil
}
