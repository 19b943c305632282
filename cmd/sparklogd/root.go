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
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sparklogio/sparklogd/internal/version"
	"github.com/sparklogio/sparklogd/pkg/config"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "sparklogd",
	Short:   "Spark log parsing and analysis service",
	Long:    `sparklogd ingests Apache Spark driver and executor logs, reconstructs multi-line entries, classifies errors, and serves the parsed results over HTTP for downstream analysis.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $SPARKLOGD_DATA_DIR/sparklogd.yaml)")

	// Server flags
	rootCmd.PersistentFlags().String("addr", ":8080", "HTTP listen address")

	// Ingestion flags
	rootCmd.PersistentFlags().String("upload-dir", "./uploads", "directory uploaded logs are stored in")
	rootCmd.PersistentFlags().String("watch-dir", "./watch", "directory watched for new log files")
	rootCmd.PersistentFlags().Int("max-upload-size-mb", 100, "maximum upload size in megabytes")
	rootCmd.PersistentFlags().String("supported-extensions", ".log,.txt,.gz,.zip", "comma-separated list of accepted extensions")
	rootCmd.PersistentFlags().Int("watch-poll-interval-seconds", 30, "fallback poll interval for the watch directory")
	rootCmd.PersistentFlags().Int("workers", 4, "parsing worker count")

	// Store flags
	rootCmd.PersistentFlags().String("store-driver", "sqlite", "persistence backend (sqlite, postgres, mysql)")
	rootCmd.PersistentFlags().String("store-dsn", "", "database DSN (default: sqlite file under the data dir)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")

	// Classification flags
	rootCmd.PersistentFlags().String("rules-file", "", "YAML file overriding category/language/mode patterns")

	bindings := map[string]string{
		"server.addr":                            "addr",
		"ingestion.upload-dir":                   "upload-dir",
		"ingestion.watch-dir":                    "watch-dir",
		"ingestion.max-upload-size-mb":           "max-upload-size-mb",
		"ingestion.supported-extensions":         "supported-extensions",
		"ingestion.watch-poll-interval-seconds":  "watch-poll-interval-seconds",
		"ingestion.workers":                      "workers",
		"store.driver":                           "store-driver",
		"store.dsn":                              "store-dsn",
		"log.level":                              "log-level",
		"log.format":                             "log-format",
		"classify.rules-file":                    "rules-file",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "bind flag %s: %v\n", flag, err)
			os.Exit(1)
		}
	}
}

// loadConfig reads the layered configuration for a subcommand run.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
