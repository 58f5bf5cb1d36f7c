package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config maps to the config.toml file for the metrics service
type Config struct {
	ListenAddress     string                  `toml:"ListenAddress"`
	DBPath            string                  `toml:"DBPath"`
	RetentionSeconds  int                     `toml:"RetentionSeconds"`
	SocialAdapter     SocialAdapterConfig     `toml:"SocialAdapter"`
	CompetitorAdapter CompetitorAdapterConfig `toml:"CompetitorAdapter"`
}

// SocialAdapterConfig holds the knobs for the social-media adapter
type SocialAdapterConfig struct {
	// WindowDays bounds the fetch to rows updated within the trailing window
	WindowDays int `toml:"WindowDays"`
}

// CompetitorAdapterConfig holds the knobs for the competitor-analysis adapter
type CompetitorAdapterConfig struct {
	// MaxRows caps the fetch to the top-N most recent analysis rows
	MaxRows int `toml:"MaxRows"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
