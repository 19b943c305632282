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
package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

func TestWatcherPicksUpExistingFileOnStart(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	ms := newMemStore()
	cfg := testConfig(t)
	coord, err := New(cfg, ms, rules)
	require.NoError(t, err)
	defer coord.Shutdown()

	path := filepath.Join(cfg.WatchDir, "preexisting.log")
	require.NoError(t, os.WriteFile(path, []byte("25/01/02 10:00:00 INFO Main: hi\n"), 0o644))

	w, err := NewWatcher(cfg, coord)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(ms.files) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Len(t, ms.files, 1)
}

func TestWatcherIgnoresUnsupportedExtension(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	ms := newMemStore()
	cfg := testConfig(t)
	coord, err := New(cfg, ms, rules)
	require.NoError(t, err)
	defer coord.Shutdown()

	path := filepath.Join(cfg.WatchDir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	w, err := NewWatcher(cfg, coord)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, ms.files)
}

func TestWatcherDoesNotResubmitSeenFile(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	ms := newMemStore()
	cfg := testConfig(t)
	coord, err := New(cfg, ms, rules)
	require.NoError(t, err)
	defer coord.Shutdown()

	path := filepath.Join(cfg.WatchDir, "repeat.log")
	require.NoError(t, os.WriteFile(path, []byte("25/01/02 10:00:00 INFO Main: hi\n"), 0o644))

	w, err := NewWatcher(cfg, coord)
	require.NoError(t, err)

	w.submit(context.Background(), path)
	w.pollOnce()
	w.pollOnce()

	assert.Len(t, ms.files, 1, "poll fallback must not resubmit an already-seen file")
}
