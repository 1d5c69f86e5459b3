package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// tsctl tool.toml key mapping to client runtime settings. Cluster topology
// lives in the JSON cluster config; this file holds tool behavior only.
type fileConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LogLevel       string `toml:"log_level"`
	ServerIndex    int    `toml:"server_index"`
	MockAddr       string `toml:"mock_addr"`
}

type toolConfig struct {
	TimeoutSeconds int
	LogLevel       string
	ServerIndex    int
	MockAddr       string
}

func defaultToolConfig() toolConfig {
	return toolConfig{
		TimeoutSeconds: 30,
		ServerIndex:    0,
		MockAddr:       ":8090",
	}
}

// tsctl loader for TOML tool config with default overlay.
func loadToolConfig(path string) (toolConfig, error) {
	cfg := defaultToolConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return toolConfig{}, fmt.Errorf("load tool config: %w", err)
	}

	if meta.IsDefined("timeout_seconds") {
		cfg.TimeoutSeconds = raw.TimeoutSeconds
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("server_index") {
		cfg.ServerIndex = raw.ServerIndex
	}
	if meta.IsDefined("mock_addr") {
		cfg.MockAddr = strings.TrimSpace(raw.MockAddr)
	}

	if err := validateToolConfig(cfg); err != nil {
		return toolConfig{}, err
	}
	return cfg, nil
}

func validateToolConfig(cfg toolConfig) error {
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("tool config timeout_seconds must be positive")
	}
	if cfg.ServerIndex < 0 {
		return fmt.Errorf("tool config server_index must not be negative")
	}
	if cfg.MockAddr == "" {
		return fmt.Errorf("tool config mock_addr must not be empty")
	}
	return nil
}
