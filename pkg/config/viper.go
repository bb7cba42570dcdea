// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// DATASET_DISCOVERY_WORKERS=4 for discovery.workers.
const EnvPrefix = "DATASET"

// NewViper returns a Viper instance wired to the config file search paths and
// the environment. An explicit path must exist; without one, a missing
// config file is not an error and defaults plus environment apply.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")                      // Current working directory
	v.AddConfigPath("/etc/dataset-builder/")  // System-wide configuration
	v.AddConfigPath("$HOME/.dataset-builder") // User-specific configuration

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}
