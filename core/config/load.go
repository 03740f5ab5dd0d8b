package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs loads the configuration from the directory of the filesystem.
func LoadFs(configFs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configPath := filepath.Join(path, ConfigurationName)
	configContents, err := afero.ReadFile(configFs, configPath)
	if err != nil {
		return nil, err
	}

	// Start from the defaults so files missing newer fields keep working.
	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	out.configFs = configFs
	out.configDir = path
	return out, nil
}

// Initialize writes the default configuration to the directory if it
// doesn't have one, then loads it.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	return InitializeFs(afero.NewOsFs(), path, logger)
}

// InitializeFs is Initialize on the given filesystem.
func InitializeFs(configFs afero.Fs, path string, logger *log.Logger) (*Configuration, error) {
	if err := configFs.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(path, ConfigurationName)
	exists, err := afero.Exists(configFs, configPath)
	if err != nil {
		return nil, err
	}

	if exists {
		logger.Printf("%s already exists, leaving it untouched", configPath)
	} else {
		logger.Printf("Writing %s", configPath)
		if err := afero.WriteFile(configFs, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return LoadFs(configFs, path)
}
