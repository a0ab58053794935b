package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".opsdesk"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file. OPSDESK_CONFIG overrides
// the default ~/.opsdesk/config.json.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("OPSDESK_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads the config file if present, applies environment overrides and
// fills in defaults. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fresh install, env + defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Paths.Data == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Paths.Data = filepath.Join(home, ConfigDir, "data")
		} else {
			cfg.Paths.Data = "data"
		}
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4o-mini"
	}
	if cfg.Completion.Temperature == nil {
		t := 0.4
		cfg.Completion.Temperature = &t
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 8080
	}
}
