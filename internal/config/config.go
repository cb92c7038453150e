package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"tomgalvin.uk/calview/internal/client"
	"tomgalvin.uk/calview/internal/weather"
)

const DefaultPath = "calview.yml"

type Config struct {
	// Endpoint overrides the local/remote preset when set.
	Endpoint      string        `yaml:"endpoint"`
	Local         bool          `yaml:"local"`
	Timeout       time.Duration `yaml:"timeout"`
	Params        client.Params `yaml:"params"`
	RowWidthBytes int           `yaml:"row_width_bytes"`
	Scale         int           `yaml:"scale"`
	Output        string        `yaml:"output"`
	// Database is the path of the frame history; empty disables it.
	Database string       `yaml:"database"`
	Server   ServerConfig `yaml:"server"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	WeatherURL     string        `yaml:"weather_url"`
	WeatherTimeout time.Duration `yaml:"weather_timeout"`
}

func Default() Config {
	return Config{
		Timeout: client.DefaultTimeout,
		Params: client.Params{
			Mac:      "test",
			Battery:  50,
			Location: "101020100",
		},
		RowWidthBytes: 25,
		Scale:         1,
		Output:        "frame.png",
		Database:      "calview.db",
		Server: ServerConfig{
			Port:           23366,
			Width:          200,
			Height:         200,
			WeatherURL:     weather.DefaultURL,
			WeatherTimeout: weather.DefaultTimeout,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not an
// error; the defaults are returned as they are.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid configuration file '%s': %w", path, err)
	}
	return c, nil
}

func (c Config) ResolvedEndpoint() string {
	switch {
	case c.Endpoint != "":
		return c.Endpoint
	case c.Local:
		return client.LocalEndpoint
	default:
		return client.RemoteEndpoint
	}
}

func (c Config) Validate() error {
	if c.RowWidthBytes <= 0 {
		return fmt.Errorf("row_width_bytes must be positive, got %d", c.RowWidthBytes)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", c.Scale)
	}
	if c.Params.Battery < 0 || c.Params.Battery > 100 {
		return fmt.Errorf("params.battery must be between 0 and 100, got %d", c.Params.Battery)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Width <= 0 || c.Server.Width%8 != 0 {
		return fmt.Errorf("server.width must be a positive multiple of 8, got %d", c.Server.Width)
	}
	if c.Server.Height <= 0 {
		return fmt.Errorf("server.height must be positive, got %d", c.Server.Height)
	}
	return nil
}
