package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultAPIURL = "http://localhost:5000/api"

// Config holds client configuration. Values come from the config file with
// environment variables taking precedence.
type Config struct {
	APIURL string `yaml:"api_url"`
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. The VOLTDECK_API_URL environment variable overrides the
// file.
func Load(path string) (*Config, error) {
	cfg := &Config{APIURL: defaultAPIURL}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	if env := os.Getenv("VOLTDECK_API_URL"); env != "" {
		cfg.APIURL = env
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return cfg, nil
}

// DefaultPath returns the default config file location under the state
// directory.
func DefaultPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns ~/.voltdeck, creating it if needed. The session store
// keeps its token and user files here too.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.StateDir: %w", err)
	}
	dir := filepath.Join(home, ".voltdeck")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("config.StateDir: %w", err)
	}
	return dir, nil
}
