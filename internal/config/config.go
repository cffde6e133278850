// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config defines the global configuration structure
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Store     StoreConfig     `mapstructure:"store"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// ServerConfig defines the snapshot TCP server
type ServerConfig struct {
	Address string `mapstructure:"address"` // e.g. "0.0.0.0:12345"
	Command string `mapstructure:"command"` // The only recognized request token
}

// DocumentsConfig defines where topology documents are read from
type DocumentsConfig struct {
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"` // e.g. ".xml"
}

// WatchConfig defines the polling watch loop
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// StoreConfig defines snapshot storage settings
type StoreConfig struct {
	Type string `mapstructure:"type"` // "sqlite", "postgres", "badger", "file", "memory"
	Path string `mapstructure:"path"` // Database file or directory for "sqlite", "badger" and "file"
	DSN  string `mapstructure:"dsn"`  // Connection string for "postgres"
}

// MetricsConfig defines the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// Store backend types.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
	StoreFile     = "file"
	StoreMemory   = "memory"
)

// LoadConfig loads configuration from file, environment and defaults.
// Without an explicit file a missing config file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/topology/")
		v.AddConfigPath("$HOME/.topology")
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("server.address", "0.0.0.0:12345")
	v.SetDefault("server.command", "GET_DATA")
	v.SetDefault("documents.dir", "./xml")
	v.SetDefault("documents.extension", ".xml")
	v.SetDefault("watch.interval", 60*time.Second)
	v.SetDefault("store.type", StoreSQLite)
	v.SetDefault("store.path", "server_data.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("metrics.address", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("TOPOLOGY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Fixups
	config.Store.Type = strings.ToLower(config.Store.Type)
	if config.Documents.Extension != "" && !strings.HasPrefix(config.Documents.Extension, ".") {
		config.Documents.Extension = "." + config.Documents.Extension
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.Command == "" {
		return fmt.Errorf("server.command is required")
	}
	if c.Documents.Dir == "" {
		return fmt.Errorf("documents.dir is required")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	switch c.Store.Type {
	case StoreBadger, StoreMemory:
	case StoreSQLite, StoreFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %q store", c.Store.Type)
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for %q store", c.Store.Type)
		}
	default:
		return fmt.Errorf("unknown store.type %q", c.Store.Type)
	}
	return nil
}
