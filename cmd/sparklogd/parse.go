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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

var parseSummaryOnly bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a Spark log file locally and print the result as JSON",
	Long: `Parse a Spark log file (plain, .gz, or .zip) without ingesting it.

Runs the same pipeline the server uses and prints the parsed entries,
detected deployment mode, and detected language to stdout. Useful for
inspecting what ingestion would produce, and for testing rules-file
overrides.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseSummaryOnly, "summary", false, "print only counts, mode, and language")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	parser := sparklog.NewParser(rules)
	result, err := parser.ParseFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	var errorCount, warningCount int
	for i := range result.Entries {
		if result.Entries[i].IsError {
			errorCount++
		}
		if result.Entries[i].IsWarning {
			warningCount++
		}
	}

	out := map[string]any{
		"mode":          result.Mode,
		"language":      result.Language,
		"entry_count":   len(result.Entries),
		"error_count":   errorCount,
		"warning_count": warningCount,
	}
	if !parseSummaryOnly {
		out["entries"] = result.Entries
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
