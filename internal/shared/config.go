package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	MPD     MPDConfig           `toml:"mpd"`
	Queue   QueueConfig         `toml:"queue"`
	Shuffle ShuffleConfig       `toml:"shuffle"`
	Exclude []map[string]string `toml:"exclude"`
}

// MPDConfig contains MPD server connection settings. An empty host defers to
// the MPD_HOST environment variable and the built-in default.
type MPDConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// QueueConfig contains queue maintenance settings.
type QueueConfig struct {
	Buffer int `toml:"buffer"`
}

// ShuffleConfig contains shuffle chain settings.
type ShuffleConfig struct {
	Window  int      `toml:"window"`
	GroupBy []string `toml:"group_by"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
