package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".donna"
	// ConfigFile is the default config file name.
	ConfigFile = "config.yaml"
)

// ConfigPath returns the path to the config file. DONNA_CONFIG
// overrides the default ~/.donna/config.yaml.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DONNA_CONFIG")); explicit != "" {
		return expandHome(explicit), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	envconfig.Process("DONNA_PATHS", &cfg.Paths)
	envconfig.Process("DONNA_PROVIDER", &cfg.Provider)
	envconfig.Process("DONNA_AGENT", &cfg.Agent)
	envconfig.Process("DONNA_SAFETY", &cfg.Safety)
	envconfig.Process("DONNA_TOOLS", &cfg.Tools)
	envconfig.Process("DONNA_LOGGING", &cfg.Logging)

	// Common key fallbacks so users don't have to duplicate exports.
	if cfg.Provider.APIKey == "" {
		if key := os.Getenv("GROQ_API_KEY"); key != "" {
			cfg.Provider.APIKey = key
		} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.Provider.APIKey = key
		}
	}

	cfg.Paths.DataDir = expandHome(cfg.Paths.DataDir)
	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
