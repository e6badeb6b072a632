package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file, by default
// ~/.pawtrail/config.yaml.
type Config struct {
	// APIBaseURL is the backend base URL.
	APIBaseURL string `yaml:"api_base_url"`
	// DataDir holds the keystore database. Defaults to the config
	// file's directory.
	DataDir string `yaml:"data_dir"`
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".pawtrail"), nil
}

// loadConfig reads the config file and applies flag overrides. A missing
// file is fine as long as the base URL arrives via --api-url.
func loadConfig() (*Config, error) {
	var cfg Config

	path := configPath
	if path == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// fall through to flag values
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("no backend URL: set api_base_url in %s or pass --api-url", path)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(path)
	}
	return &cfg, nil
}
