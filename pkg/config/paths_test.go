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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDir(t *testing.T) {
	originalEnv := os.Getenv("SPARKLOGD_DATA_DIR")
	defer func() {
		if originalEnv != "" {
			_ = os.Setenv("SPARKLOGD_DATA_DIR", originalEnv)
		} else {
			_ = os.Unsetenv("SPARKLOGD_DATA_DIR")
		}
	}()

	t.Run("default to ~/.sparklogd", func(t *testing.T) {
		_ = os.Unsetenv("SPARKLOGD_DATA_DIR")

		dataDir := GetDataDir()

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		expected := filepath.Join(homeDir, ".sparklogd")
		assert.Equal(t, expected, dataDir)
	})

	t.Run("use SPARKLOGD_DATA_DIR when set", func(t *testing.T) {
		customDir := "/custom/sparklogd/data"
		_ = os.Setenv("SPARKLOGD_DATA_DIR", customDir)

		dataDir := GetDataDir()

		assert.Equal(t, customDir, dataDir)
	})

	t.Run("expand ~ in SPARKLOGD_DATA_DIR", func(t *testing.T) {
		_ = os.Setenv("SPARKLOGD_DATA_DIR", "~/custom/.sparklogd")

		dataDir := GetDataDir()

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		expected := filepath.Join(homeDir, "custom", ".sparklogd")
		assert.Equal(t, expected, dataDir)
	})

	t.Run("make relative path absolute in SPARKLOGD_DATA_DIR", func(t *testing.T) {
		_ = os.Setenv("SPARKLOGD_DATA_DIR", "relative/path")

		dataDir := GetDataDir()

		assert.True(t, filepath.IsAbs(dataDir))
		assert.True(t, strings.HasSuffix(dataDir, "relative/path") || strings.HasSuffix(dataDir, "relative\\path"))
	})
}

func TestGetSubDir(t *testing.T) {
	originalEnv := os.Getenv("SPARKLOGD_DATA_DIR")
	defer func() {
		if originalEnv != "" {
			_ = os.Setenv("SPARKLOGD_DATA_DIR", originalEnv)
		} else {
			_ = os.Unsetenv("SPARKLOGD_DATA_DIR")
		}
	}()

	t.Run("return subdirectory path", func(t *testing.T) {
		_ = os.Unsetenv("SPARKLOGD_DATA_DIR")

		uploadsDir := GetSubDir("uploads")

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		expected := filepath.Join(homeDir, ".sparklogd", "uploads")
		assert.Equal(t, expected, uploadsDir)
	})

	t.Run("respect SPARKLOGD_DATA_DIR for subdirectories", func(t *testing.T) {
		customDir := "/custom/sparklogd"
		_ = os.Setenv("SPARKLOGD_DATA_DIR", customDir)

		watchDir := GetSubDir("watch")

		expected := filepath.Join(customDir, "watch")
		assert.Equal(t, expected, watchDir)
	})
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand tilde",
			input:    "~/test/path",
			expected: filepath.Join(homeDir, "test", "path"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/absolute/path",
			expected: "/absolute/path",
		},
		{
			name:  "relative path made absolute",
			input: "relative/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)

			if tt.name == "relative path made absolute" {
				assert.True(t, filepath.IsAbs(result))
				assert.True(t, strings.HasSuffix(result, "relative/path") || strings.HasSuffix(result, "relative\\path"))
			} else {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
