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

// Package config locates sparklogd's data directory and loads its layered
// (flags > env > config file > defaults) configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns sparklogd's data directory.
//
// Priority:
// 1. SPARKLOGD_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.sparklogd (default)
//
// The returned path is always absolute; a leading ~ is expanded. Read
// directly from os.Getenv rather than viper, since it is needed to locate
// the config file itself, before viper has anything loaded.
func GetDataDir() string {
	if dataDir := os.Getenv("SPARKLOGD_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".sparklogd"
	}
	return filepath.Join(homeDir, ".sparklogd")
}

// GetSubDir returns a subdirectory within the data directory, e.g.
// GetSubDir("uploads") returns ~/.sparklogd/uploads.
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
