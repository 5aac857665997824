// Package config loads application configuration from environment variables
// and an optional .env file, with defaults taken from struct tags.
package config

import (
	"reflect"
	"strings"

	"doc-sync/core/database"
	"doc-sync/core/logger"
	"doc-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SyncConfig holds configuration for the synchronization loop.
type SyncConfig struct {
	// Table is the MySQL table documents are stored in.
	Table string `mapstructure:"table" default:"documents"`
	// Prefix is the object key prefix documents are stored under.
	Prefix string `mapstructure:"prefix" default:"documents"`
	// IntervalSeconds is the idle time between reconciliation passes.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"60"`
}

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the MySQL store.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object storage store.
	Storage storage.Config `mapstructure:"storage"`
	// Sync holds configuration for the synchronization loop.
	Sync SyncConfig `mapstructure:"sync"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if the file doesn't exist (e.g. production).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values.
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_TABLE -> sync.table).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv.
		v.SetDefault(key, defaultValue)
	}
}
