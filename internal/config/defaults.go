package config

import (
	"path/filepath"
	"time"
)

func DefaultConfig() *Config {
	return &Config{
		Mode: "development",
		Database: Database{
			Path: filepath.Join("/tmp", "agri-dashboard", "sensor_data.db"),
		},
		Serial: Serial{
			Port:         "/dev/ttyUSB0",
			BaudRate:     9600,
			Enabled:      true,
			MockInterval: 2 * time.Second,
		},
		Ollama: Ollama{
			Host:    "http://localhost:11434",
			Model:   "llama3.1:8b",
			Timeout: 60 * time.Second,
		},
		Server: Server{
			Addr: ":8080",
		},
		Chart: Chart{
			Points: 60,
			Width:  960,
			Height: 420,
		},
		Soil: Soil{
			RawMin: 300,
			RawMax: 700,
		},
		PubSub: PubSub{
			Topic: "sensor-readings",
		},
	}
}
