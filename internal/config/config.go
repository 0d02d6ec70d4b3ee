// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads vaultsetup settings from defaults, YAML files, a .env
// file and VAULTSETUP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "vaultsetup"
	envPrefix = "vaultsetup"
	// ProjectFile is merged from the working directory on top of the
	// user and system files.
	ProjectFile = ".vaultsetup.yaml"
	// EnvFile is loaded into the environment before anything else.
	EnvFile = ".env"
)

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Vaultsetup")
		default:
			configDir = "/etc/vaultsetup"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, appName)
	}

	return filepath.Join(configDir, appName+".yaml"), nil
}

var validate = validator.New()

// LoadConfig resolves T and validates it. The returned string is the config
// file that was read, empty when running on defaults only.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, string, error) {
	var c T

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, "", fmt.Errorf("load %s: %w", EnvFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, "", fmt.Errorf("read config: %w", err)
		}
	}
	used := v.ConfigFileUsed()

	if err := mergeProjectConfig(v); err != nil {
		return c, used, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, used, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, used, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return c, used, fmt.Errorf("invalid config: %w", err)
	}
	return c, used, nil
}

// mergeProjectConfig merges ProjectFile from the working directory when
// present. A malformed file is an error.
func mergeProjectConfig(v *viper.Viper) error {
	if _, err := os.Stat(ProjectFile); err != nil {
		return nil
	}
	v.SetConfigFile(ProjectFile)
	defer v.SetConfigFile("")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", ProjectFile, err)
	}
	return nil
}

// WriteConfigFile persists c to the user (or system) config path and
// returns that path.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := getConfigPath(system)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
