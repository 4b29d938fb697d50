package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the remote endpoints.
type ServerConfig struct {
	// APIBaseURL is the root of the REST API (e.g. https://api.example.com/api/v1).
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// WSURL is the push channel endpoint (e.g. wss://api.example.com/ws).
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`
}

// PollConfig holds the background polling cadence in seconds. Polling
// runs alongside the push channel as a backup against missed deliveries.
type PollConfig struct {
	RequestsSec      int `mapstructure:"requests_sec" yaml:"requests_sec"`
	DashboardSec     int `mapstructure:"dashboard_sec" yaml:"dashboard_sec"`
	NotificationsSec int `mapstructure:"notifications_sec" yaml:"notifications_sec"`
}

// NearbyConfig controls the nearby-shop search.
type NearbyConfig struct {
	RadiusKm           float64 `mapstructure:"radius_km" yaml:"radius_km"`
	IncludeUnavailable bool    `mapstructure:"include_unavailable" yaml:"include_unavailable"`
}

// GeoConfig configures the device position source.
type GeoConfig struct {
	// Enabled turns the position watcher on for client-role sessions.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// GpsdAddr is the gpsd TCP endpoint.
	GpsdAddr string `mapstructure:"gpsd_addr" yaml:"gpsd_addr"`

	// SampleIntervalSec is how often the watcher samples the provider.
	SampleIntervalSec int `mapstructure:"sample_interval_sec" yaml:"sample_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Poll   PollConfig   `mapstructure:"poll" yaml:"poll"`
	Nearby NearbyConfig `mapstructure:"nearby" yaml:"nearby"`
	Geo    GeoConfig    `mapstructure:"geo" yaml:"geo"`
}

// DefaultConfigDir returns ~/.config/roadassist.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "roadassist")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			APIBaseURL: "http://localhost:8080/api/v1",
			WSURL:      "ws://localhost:8080/ws",
		},
		Poll: PollConfig{
			RequestsSec:      5,
			DashboardSec:     30,
			NotificationsSec: 30,
		},
		Nearby: NearbyConfig{
			RadiusKm: 20,
		},
		Geo: GeoConfig{
			Enabled:           true,
			GpsdAddr:          "localhost:2947",
			SampleIntervalSec: 5,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, defaults are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.api_base_url", "http://localhost:8080/api/v1")
	v.SetDefault("server.ws_url", "ws://localhost:8080/ws")
	v.SetDefault("poll.requests_sec", 5)
	v.SetDefault("poll.dashboard_sec", 30)
	v.SetDefault("poll.notifications_sec", 30)
	v.SetDefault("nearby.radius_km", 20)
	v.SetDefault("geo.enabled", true)
	v.SetDefault("geo.gpsd_addr", "localhost:2947")
	v.SetDefault("geo.sample_interval_sec", 5)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("poll", cfg.Poll)
	v.Set("nearby", cfg.Nearby)
	v.Set("geo", cfg.Geo)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
