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

// Package store implements the persistence interface the parsing engine
// requires: saving LogFile records, atomically committing parsed entries
// alongside finalization, and loading records back for the HTTP surface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

// ErrNotFound is returned by LoadLogFile when no row matches the id.
var ErrNotFound = errors.New("store: log file not found")

// ListFilter narrows a LogFile listing.
type ListFilter struct {
	Source sparklog.IngestionSource
	State  sparklog.ProcessingState
	Limit  int
	Offset int
}

// EntryFilter narrows a LogEntry listing for one LogFile.
type EntryFilter struct {
	Level    sparklog.Level
	Category sparklog.Category
	Limit    int
	Offset   int
}

// Stats summarizes a LogFile's parsed entries.
type Stats struct {
	EntryCount   int
	ErrorCount   int
	WarningCount int
}

// Store is the persistence interface the parsing engine and the
// ingestion coordinator require. Implementations may be backed by
// SQLite, PostgreSQL, or MySQL; callers depend only on this interface.
type Store interface {
	// SaveLogFile inserts record in state=pending and returns its id.
	SaveLogFile(ctx context.Context, record *sparklog.LogFile) (int64, error)

	// SaveEntriesAndFinalize persists entries and marks fileID processed
	// in one atomic commit, along with the detected language and mode.
	SaveEntriesAndFinalize(ctx context.Context, fileID int64, entries []sparklog.LogEntry, language sparklog.SparkLanguage, mode sparklog.SparkMode) error

	// MarkFailed records a terminal parse failure for fileID.
	MarkFailed(ctx context.Context, fileID int64, errMessage string) error

	// LoadLogFile returns the record for fileID, or ErrNotFound.
	LoadLogFile(ctx context.Context, fileID int64) (*sparklog.LogFile, error)

	// ListLogFiles returns LogFile records matching filter, newest first.
	ListLogFiles(ctx context.Context, filter ListFilter) ([]sparklog.LogFile, error)

	// ListEntries returns LogEntry rows for fileID matching filter, in
	// ascending line_number order, along with the total matching count
	// (ignoring Limit/Offset) for pagination.
	ListEntries(ctx context.Context, fileID int64, filter EntryFilter) ([]sparklog.LogEntry, int, error)

	// Stats summarizes fileID's entries.
	Stats(ctx context.Context, fileID int64) (Stats, error)

	// DeleteLogFile removes fileID and cascades to its entries.
	DeleteLogFile(ctx context.Context, fileID int64) error

	Close() error
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func timeFromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
