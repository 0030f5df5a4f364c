// Package config handles configuration loading for ocfviz.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/layout"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. OCFVIZ_SOURCE_BASE_URL.
const EnvPrefix = "OCFVIZ"

// Config represents the complete application configuration.
type Config struct {
	API          APIConfig          `mapstructure:"api"          yaml:"api"`
	Source       SourceConfig       `mapstructure:"source"       yaml:"source"`
	Presentation PresentationConfig `mapstructure:"presentation" yaml:"presentation"`
	Logging      LoggingConfig      `mapstructure:"logging"      yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	ServeUI     bool     `mapstructure:"serve_ui"     yaml:"serve_ui"` // serve the embedded dashboard at /
}

// SourceConfig holds the upstream data API settings.
type SourceConfig struct {
	BaseURL       string        `mapstructure:"base_url"       yaml:"base_url"`
	APIKey        string        `mapstructure:"api_key"        yaml:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
	Retries       int           `mapstructure:"retries"        yaml:"retries"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"      yaml:"cache_ttl"`
	RateLimit     int           `mapstructure:"rate_limit"     yaml:"rate_limit"` // requests per window
	RateWindow    time.Duration `mapstructure:"rate_window"    yaml:"rate_window"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// PresentationConfig overrides the scalar presentation defaults.
type PresentationConfig struct {
	LegendFontSize float64      `mapstructure:"legend_font_size" yaml:"legend_font_size" json:"legend_font_size"`
	FontFamily     string       `mapstructure:"font_family"      yaml:"font_family"      json:"font_family"`
	FontSize       float64      `mapstructure:"font_size"        yaml:"font_size"        json:"font_size"`
	Margin         MarginConfig `mapstructure:"margin"           yaml:"margin"           json:"margin"`
	DisplayModeBar bool         `mapstructure:"display_mode_bar" yaml:"display_mode_bar" json:"display_mode_bar"`
	Responsive     bool         `mapstructure:"responsive"       yaml:"responsive"       json:"responsive"`
}

// MarginConfig holds plot margins in pixels.
type MarginConfig struct {
	L float64 `mapstructure:"l" yaml:"l" json:"l"`
	R float64 `mapstructure:"r" yaml:"r" json:"r"`
	T float64 `mapstructure:"t" yaml:"t" json:"t"`
	B float64 `mapstructure:"b" yaml:"b" json:"b"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Defaults converts the presentation section into reconciler defaults.
// Unset numeric values keep the built-in defaults.
func (p PresentationConfig) Defaults() layout.Defaults {
	d := layout.DefaultDefaults()
	if p.LegendFontSize > 0 {
		d.Legend.Font = &models.Font{Size: models.Float(p.LegendFontSize)}
	}
	if p.FontFamily != "" {
		d.Font.Family = p.FontFamily
	}
	if p.FontSize > 0 {
		d.Font.Size = models.Float(p.FontSize)
	}
	if p.Margin.L > 0 {
		d.Margin.L = models.Float(p.Margin.L)
	}
	if p.Margin.R > 0 {
		d.Margin.R = models.Float(p.Margin.R)
	}
	if p.Margin.T > 0 {
		d.Margin.T = models.Float(p.Margin.T)
	}
	if p.Margin.B > 0 {
		d.Margin.B = models.Float(p.Margin.B)
	}
	d.Config.DisplayModeBar = models.Bool(p.DisplayModeBar)
	d.Config.Responsive = models.Bool(p.Responsive)
	return d
}

// Addr returns the host:port the API listens on.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.ocfviz/config.yaml (home directory)
//  3. /etc/ocfviz/config.yaml (system)
//
// Environment variables override config file values.
// Format: OCFVIZ_<SECTION>_<KEY>, e.g., OCFVIZ_SOURCE_BASE_URL
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ocfviz"))
	v.AddConfigPath("/etc/ocfviz")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("api.serve_ui", true)

	// Source defaults
	v.SetDefault("source.base_url", "http://localhost:8000")
	v.SetDefault("source.timeout", 15*time.Second)
	v.SetDefault("source.retries", 3)
	v.SetDefault("source.cache_ttl", 5*time.Minute)
	v.SetDefault("source.rate_limit", 10)
	v.SetDefault("source.rate_window", time.Second)
	v.SetDefault("source.max_concurrent", 4)

	// Presentation defaults
	v.SetDefault("presentation.legend_font_size", layout.DefaultLegendFontSize)
	v.SetDefault("presentation.font_family", layout.DefaultFontFamily)
	v.SetDefault("presentation.font_size", layout.DefaultFontSize)
	v.SetDefault("presentation.margin.l", layout.DefaultMarginLeft)
	v.SetDefault("presentation.margin.r", layout.DefaultMarginRight)
	v.SetDefault("presentation.margin.t", layout.DefaultMarginTop)
	v.SetDefault("presentation.margin.b", layout.DefaultMarginBottom)
	v.SetDefault("presentation.display_mode_bar", true)
	v.SetDefault("presentation.responsive", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Source.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
