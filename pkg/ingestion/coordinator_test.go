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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklogio/sparklogd/pkg/config"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
	"github.com/sparklogio/sparklogd/pkg/store"
)

// memStore is an in-memory store.Store fake for exercising the
// Coordinator without a real database backend.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	files   map[int64]*sparklog.LogFile
	entries map[int64][]sparklog.LogEntry

	failSave bool
}

func newMemStore() *memStore {
	return &memStore{
		files:   make(map[int64]*sparklog.LogFile),
		entries: make(map[int64][]sparklog.LogEntry),
	}
}

func (m *memStore) SaveLogFile(_ context.Context, record *sparklog.LogFile) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	cp := *record
	cp.ID = id
	m.files[id] = &cp
	return id, nil
}

func (m *memStore) SaveEntriesAndFinalize(_ context.Context, fileID int64, entries []sparklog.LogEntry, language sparklog.SparkLanguage, mode sparklog.SparkMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return assert.AnError
	}
	m.entries[fileID] = entries
	f, ok := m.files[fileID]
	if !ok {
		return nil
	}
	f.State = sparklog.StateProcessed
	f.DetectedLanguage = language
	f.DetectedMode = mode
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, fileID int64, errMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil
	}
	f.State = sparklog.StateFailed
	f.ErrorMessage = errMessage
	return nil
}

func (m *memStore) LoadLogFile(_ context.Context, fileID int64) (*sparklog.LogFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) ListLogFiles(context.Context, store.ListFilter) ([]sparklog.LogFile, error) {
	return nil, nil
}

func (m *memStore) ListEntries(context.Context, int64, store.EntryFilter) ([]sparklog.LogEntry, int, error) {
	return nil, 0, nil
}

func (m *memStore) Stats(context.Context, int64) (store.Stats, error) {
	return store.Stats{}, nil
}

func (m *memStore) DeleteLogFile(context.Context, int64) error { return nil }

func (m *memStore) Close() error { return nil }

var _ store.Store = (*memStore)(nil)

func testConfig(t *testing.T) config.IngestionConfig {
	t.Helper()
	return config.IngestionConfig{
		UploadDir:                t.TempDir(),
		WatchDir:                 t.TempDir(),
		MaxUploadSizeMB:          1,
		SupportedExtensions:      ".log,.txt,.gz,.zip",
		WatchPollIntervalSeconds: 30,
		Workers:                  2,
		QueueSize:                8,
	}
}

func waitForState(t *testing.T, ms *memStore, id int64, want sparklog.ProcessingState) *sparklog.LogFile {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f, err := ms.LoadLogFile(context.Background(), id)
		require.NoError(t, err)
		if f.State == want {
			return f
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("log file %d did not reach state %s", id, want)
	return nil
}

func TestCoordinatorPushAndProcess(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	ms := newMemStore()
	c, err := New(testConfig(t), ms, rules)
	require.NoError(t, err)
	defer c.Shutdown()

	content := "25/01/02 10:00:00 INFO Main: starting up\n"
	record, err := c.Push(context.Background(), "app.log", []byte(content), sparklog.SourceUpload)
	require.NoError(t, err)
	assert.Equal(t, sparklog.StatePending, record.State)

	final := waitForState(t, ms, record.ID, sparklog.StateProcessed)
	assert.Len(t, ms.entries[final.ID], 1)
}

func TestCoordinatorRejectsUnsupportedFormat(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	c, err := New(testConfig(t), newMemStore(), rules)
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.Push(context.Background(), "app.exe", []byte("x"), sparklog.SourceUpload)
	assert.ErrorIs(t, err, sparklog.ErrUnsupportedFormat)
}

func TestCoordinatorRejectsTooLarge(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	cfg := testConfig(t)
	cfg.MaxUploadSizeMB = 0 // any non-empty payload exceeds 0 bytes
	c, err := New(cfg, newMemStore(), rules)
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.Push(context.Background(), "app.log", []byte("too big"), sparklog.SourceUpload)
	assert.ErrorIs(t, err, sparklog.ErrTooLarge)
}

func TestCoordinatorPersistenceFailureLeavesFilePending(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	ms := newMemStore()
	ms.failSave = true
	c, err := New(testConfig(t), ms, rules)
	require.NoError(t, err)
	defer c.Shutdown()

	record, err := c.Push(context.Background(), "app.log", []byte("25/01/02 10:00:00 INFO Main: hi\n"), sparklog.SourceUpload)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	f, err := ms.LoadLogFile(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, sparklog.StatePending, f.State, "persistence errors must not mark the file failed")
}

func TestCoordinatorQueueFullRejectsBeyondCapacity(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	cfg := testConfig(t)
	cfg.Workers = 1
	cfg.QueueSize = 1
	c, err := New(cfg, newMemStore(), rules)
	require.NoError(t, err)
	defer c.Shutdown()

	// enqueue directly (bypassing Push's disk I/O) to deterministically
	// fill the one-slot queue before the single worker can drain it.
	c.mu.Lock()
	c.running[1] = func() {}
	c.mu.Unlock()
	c.jobs <- job{fileID: 1, path: "/dev/null", ctx: context.Background(), cancel: func() {}}

	err = c.enqueue(2, "/dev/null")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestCoordinatorCancel(t *testing.T) {
	rules := sparklog.NewDefaultRules()
	c, err := New(testConfig(t), newMemStore(), rules)
	require.NoError(t, err)
	defer c.Shutdown()

	assert.False(t, c.Cancel(999), "cancelling an unknown file id should report false")
}
