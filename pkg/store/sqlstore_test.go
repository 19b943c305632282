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
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), StoreConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogFile() *sparklog.LogFile {
	return &sparklog.LogFile{
		ContentHash:      "deadbeef",
		StoredFilename:   "20240128_103045_deadbeef_app.log",
		OriginalFilename: "app.log",
		Path:             "/tmp/uploads/20240128_103045_deadbeef_app.log",
		SizeBytes:        1024,
		MIMEHint:         "text/plain",
		Source:           sparklog.SourceUpload,
	}
}

func TestSaveAndLoadLogFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.LoadLogFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got.ContentHash)
	assert.Equal(t, sparklog.StatePending, got.State)
	assert.Equal(t, sparklog.SourceUpload, got.Source)
	assert.Nil(t, got.ProcessedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestLoadLogFileNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadLogFile(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEntriesAndFinalize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)

	ts := time.Date(2024, 1, 28, 10, 31, 2, 0, time.UTC)
	entries := []sparklog.LogEntry{
		{
			LineNumber: 1, RawLine: "24/01/28 10:31:02 ERROR Executor: boom",
			Message: "24/01/28 10:31:02 ERROR Executor: boom", Timestamp: &ts,
			Level: sparklog.LevelError, Component: "Executor",
			HasStackTrace: true, StackTrace: "\tat a.B.c(D.scala:1)",
			ExceptionType: "java.lang.OutOfMemoryError",
			Category:      sparklog.CategoryMemory, IsError: true,
		},
		{
			LineNumber: 4, RawLine: "24/01/28 10:31:03 INFO BlockManager: ok",
			Message: "24/01/28 10:31:03 INFO BlockManager: ok",
			Level:   sparklog.LevelInfo, Component: "BlockManager",
		},
	}

	require.NoError(t, s.SaveEntriesAndFinalize(ctx, id, entries, sparklog.LanguageScala, sparklog.ModeYARN))

	got, err := s.LoadLogFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sparklog.StateProcessed, got.State)
	assert.Equal(t, sparklog.LanguageScala, got.DetectedLanguage)
	assert.Equal(t, sparklog.ModeYARN, got.DetectedMode)
	require.NotNil(t, got.ProcessedAt)

	listed, total, err := s.ListEntries(ctx, id, EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, listed, 2)
	assert.Equal(t, 1, listed[0].LineNumber, "entries come back in line order")
	assert.Equal(t, "java.lang.OutOfMemoryError", listed[0].ExceptionType)
	require.NotNil(t, listed[0].Timestamp)
	assert.True(t, ts.Equal(*listed[0].Timestamp))
	assert.Nil(t, listed[1].Timestamp)
	assert.Empty(t, listed[1].StackTrace)
}

func TestListEntriesFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)

	entries := []sparklog.LogEntry{
		{LineNumber: 1, RawLine: "e", Message: "e", Level: sparklog.LevelError,
			Category: sparklog.CategoryMemory, IsError: true},
		{LineNumber: 2, RawLine: "w", Message: "w", Level: sparklog.LevelWarn,
			Category: sparklog.CategoryShuffle, IsWarning: true},
		{LineNumber: 3, RawLine: "i", Message: "i", Level: sparklog.LevelInfo},
	}
	require.NoError(t, s.SaveEntriesAndFinalize(ctx, id, entries, sparklog.LanguageUnknown, sparklog.ModeUnknown))

	byLevel, total, err := s.ListEntries(ctx, id, EntryFilter{Level: sparklog.LevelWarn})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byLevel, 1)
	assert.Equal(t, sparklog.CategoryShuffle, byLevel[0].Category)

	paged, total, err := s.ListEntries(ctx, id, EntryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, paged, 1)
	assert.Equal(t, 2, paged[0].LineNumber)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)

	entries := []sparklog.LogEntry{
		{LineNumber: 1, RawLine: "e", Message: "e", Level: sparklog.LevelError, IsError: true},
		{LineNumber: 2, RawLine: "w", Message: "w", Level: sparklog.LevelWarn, IsWarning: true},
		{LineNumber: 3, RawLine: "i", Message: "i", Level: sparklog.LevelInfo},
	}
	require.NoError(t, s.SaveEntriesAndFinalize(ctx, id, entries, sparklog.LanguageUnknown, sparklog.ModeUnknown))

	st, err := s.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Stats{EntryCount: 3, ErrorCount: 1, WarningCount: 1}, st)
}

func TestMarkFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(ctx, id, "corrupt gzip header"))

	got, err := s.LoadLogFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sparklog.StateFailed, got.State)
	assert.Equal(t, "corrupt gzip header", got.ErrorMessage)
	assert.Nil(t, got.ProcessedAt)
}

func TestDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)
	require.NoError(t, s.SaveEntriesAndFinalize(ctx, id,
		[]sparklog.LogEntry{{LineNumber: 1, RawLine: "x", Message: "x"}},
		sparklog.LanguageUnknown, sparklog.ModeUnknown))

	require.NoError(t, s.DeleteLogFile(ctx, id))

	_, err = s.LoadLogFile(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err := s.ListEntries(ctx, id, EntryFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "entries must cascade on delete")
}

func TestListLogFiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveLogFile(ctx, testLogFile())
	require.NoError(t, err)

	second := testLogFile()
	second.Source = sparklog.SourceFolderWatch
	secondID, err := s.SaveLogFile(ctx, second)
	require.NoError(t, err)

	all, err := s.ListLogFiles(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, secondID, all[0].ID, "newest first")
	assert.Equal(t, first, all[1].ID)

	watched, err := s.ListLogFiles(ctx, ListFilter{Source: sparklog.SourceFolderWatch})
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, secondID, watched[0].ID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), StoreConfig{Driver: "oracle"})
	assert.Error(t, err)
}
