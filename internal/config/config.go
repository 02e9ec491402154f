// Package config loads the optional user configuration file with default
// flag values, so recurring audits do not need the full flag set every run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/akscheck/config.yaml; every field is a default
// that the corresponding CLI flag overrides.
type Config struct {
	Azure Azure `yaml:"azure" json:"azure"`
	Audit Audit `yaml:"audit" json:"audit"`
}

// Azure holds the Azure targeting defaults used when flags are not provided.
type Azure struct {
	// SubscriptionID is used when $AZURE_SUBSCRIPTION_ID and --subscription
	// are both unset.
	SubscriptionID string `yaml:"subscription_id" json:"subscription_id"`

	// ResourceGroup is used when no --resource-group flag is provided.
	ResourceGroup string `yaml:"resource_group" json:"resource_group"`

	// ClusterName is used when no --name flag is provided.
	ClusterName string `yaml:"cluster_name" json:"cluster_name"`
}

// Audit holds default audit parameters.
type Audit struct {
	// Registries is the default --image-registries value.
	Registries []string `yaml:"registries" json:"registries"`

	// IgnoreNamespaces is the default --ignore-namespaces value.
	IgnoreNamespaces []string `yaml:"ignore_namespaces" json:"ignore_namespaces"`
}

// Loader is the interface for reading Config from disk.
type Loader interface {
	// Load reads and parses the configuration file. A missing file is not
	// an error; it yields an empty Config.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// FileLoader reads the config file from ~/.config/akscheck/config.yaml.
type FileLoader struct{}

// NewFileLoader returns a loader over the default config path.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "akscheck", "config.yaml")
}

// Load implements Loader.
func (l *FileLoader) Load() (*Config, error) {
	path := l.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}
