package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int            `yaml:"version" validate:"gte=1"`
	LevelsDir string         `yaml:"levels_dir" validate:"required"`
	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	Parser    ParserConfig   `yaml:"parser"`
	Watch     WatchConfig    `yaml:"watch"`
}

// DatabaseConfig configures the level store
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// ParserConfig tunes descriptor parsing
type ParserConfig struct {
	// StrictNames rejects descriptors that declare a node name twice
	StrictNames bool `yaml:"strict_names"`
}

// WatchConfig configures hot reload of the levels directory
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Debounce Duration `yaml:"debounce" validate:"gte=0"`
}

// Duration is a time.Duration that reads and writes as "500ms", "2s", ...
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the value as a time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
