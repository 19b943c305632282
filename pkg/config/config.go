// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for sparklogd. Priority: CLI flags >
// environment variables > config file > defaults.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"log"`
	Classify  ClassifyConfig  `mapstructure:"classify"`
}

// ServerConfig configures the HTTP ingestion/query surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// IngestionConfig holds the ingestion pipeline's recognized options.
type IngestionConfig struct {
	UploadDir                string `mapstructure:"upload-dir"`
	WatchDir                 string `mapstructure:"watch-dir"`
	MaxUploadSizeMB          int64  `mapstructure:"max-upload-size-mb"`
	SupportedExtensions      string `mapstructure:"supported-extensions"`
	WatchPollIntervalSeconds int    `mapstructure:"watch-poll-interval-seconds"`
	Workers                  int    `mapstructure:"workers"`
	QueueSize                int    `mapstructure:"queue-size"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN           string `mapstructure:"dsn"`
	EncryptionKey string `mapstructure:"encryption-key"`
}

// LoggingConfig configures the global zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClassifyConfig names the optional YAML override for category, language,
// and mode patterns without a rebuild.
type ClassifyConfig struct {
	RulesFile string `mapstructure:"rules-file"`
}

// Extensions returns Ingestion.SupportedExtensions split on commas, each
// trimmed and lower-cased.
func (c IngestionConfig) Extensions() []string {
	parts := strings.Split(c.SupportedExtensions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaxUploadSizeBytes returns the configured max upload size in bytes.
func (c IngestionConfig) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

// SetDefaults registers the default value for every recognized key before
// a config file or environment variables are applied.
func SetDefaults() {
	viper.SetDefault("server.addr", ":8080")

	viper.SetDefault("ingestion.upload-dir", "./uploads")
	viper.SetDefault("ingestion.watch-dir", "./watch")
	viper.SetDefault("ingestion.max-upload-size-mb", 100)
	viper.SetDefault("ingestion.supported-extensions", ".log,.txt,.gz,.zip")
	viper.SetDefault("ingestion.watch-poll-interval-seconds", 30)
	viper.SetDefault("ingestion.workers", 4)
	viper.SetDefault("ingestion.queue-size", 256)

	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.dsn", GetSubDir("sparklogd.db"))

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("classify.rules-file", "")
}

// Load reads cfgFile (or searches the standard locations), layers in
// SPARKLOGD_-prefixed environment variables, and unmarshals the result.
// cfgFile may be empty; a missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(GetDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/sparklogd/")
		viper.SetConfigName("sparklogd")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetEnvPrefix("SPARKLOGD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
