package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string   `yaml:"mode" envconfig:"MODE"`
	Database Database `yaml:"database"`
	Serial   Serial   `yaml:"serial"`
	Ollama   Ollama   `yaml:"ollama"`
	Server   Server   `yaml:"server"`
	Chart    Chart    `yaml:"chart"`
	Soil     Soil     `yaml:"soil"`
	PubSub   PubSub   `yaml:"pubsub"`
}

type Database struct {
	Path string `yaml:"path" envconfig:"DATABASE_PATH"`
}

type Serial struct {
	Port         string        `yaml:"port" envconfig:"SERIAL_PORT"`
	BaudRate     int           `yaml:"baud_rate" envconfig:"SERIAL_BAUDRATE"`
	Enabled      bool          `yaml:"enabled" envconfig:"SERIAL_ENABLED"`
	MockInterval time.Duration `yaml:"mock_interval" envconfig:"MOCK_INTERVAL"`
}

type Ollama struct {
	Host    string        `yaml:"host" envconfig:"OLLAMA_HOST"`
	Model   string        `yaml:"model" envconfig:"OLLAMA_MODEL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"OLLAMA_TIMEOUT"`
}

type Server struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

type Chart struct {
	Points int `yaml:"points" envconfig:"CHART_POINTS"`
	Width  int `yaml:"width" envconfig:"CHART_WIDTH"`
	Height int `yaml:"height" envconfig:"CHART_HEIGHT"`
}

// Soil holds the raw analog calibration used to express soil moisture in percent.
type Soil struct {
	RawMin float64 `yaml:"raw_min" envconfig:"SOIL_RAW_MIN"`
	RawMax float64 `yaml:"raw_max" envconfig:"SOIL_RAW_MAX"`
}

type PubSub struct {
	Enabled   bool   `yaml:"enabled" envconfig:"PUBSUB_ENABLED"`
	ProjectID string `yaml:"project_id" envconfig:"PUBSUB_PROJECT_ID"`
	Topic     string `yaml:"topic" envconfig:"PUBSUB_TOPIC"`
}

const envPrefix = "AGRI_DASHBOARD"

// ConfigPath returns the configuration file path
// Default: ~/.config/agri-dashboard/config.yaml
func ConfigPath() string {
	if path := os.Getenv("AGRI_DASHBOARD_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agri-dashboard", "config.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load from YAML file if exists
	configPath := ConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	// Process nested structs with the same prefix to support flat env var names
	nested := []interface{}{
		&cfg.Database,
		&cfg.Serial,
		&cfg.Ollama,
		&cfg.Server,
		&cfg.Chart,
		&cfg.Soil,
		&cfg.PubSub,
	}
	for _, spec := range nested {
		if err := envconfig.Process(envPrefix, spec); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) Save() error {
	configPath := ConfigPath()

	// Create directory if not exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
