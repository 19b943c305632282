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
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/lib/pq"              // registers "postgres"

	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/internal/sqlitedriver" // registers "sqlite3"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

// entryBatchSize sets how often SaveEntriesAndFinalize logs its insert
// progress. Rows are inserted one at a time in a single transaction, and the
// caller's full entry slice stays in memory; inserts are not batched.
const entryBatchSize = 500

// SQLStore is a database/sql-backed Store implementation shared across the
// sqlite, postgres, and mysql backends; the three differ only in dialect
// (placeholder syntax, autoincrement DDL, and id recovery).
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Open opens (and, if necessary, migrates) the store described by cfg.
// driver is one of "sqlite", "postgres", "mysql".
func Open(ctx context.Context, cfg StoreConfig) (*SQLStore, error) {
	var (
		driverName string
		d          dialect
	)

	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		driverName, d = "sqlite3", sqliteDialect
	case "postgres", "postgresql":
		driverName, d = "postgres", postgresDialect
	case "mysql":
		driverName, d = "mysql", mysqlDialect
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driverName, err)
	}

	if driverName == "sqlite3" {
		if err := configureSQLite(ctx, db, cfg.EncryptionKey); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// StoreConfig is the subset of pkg/config's StoreConfig this package needs;
// duplicated here (rather than imported) to avoid a dependency cycle
// between pkg/config and pkg/store.
type StoreConfig struct {
	Driver        string
	DSN           string
	EncryptionKey string
}

func configureSQLite(ctx context.Context, db *sql.DB, encryptionKey string) error {
	db.SetMaxOpenConns(1) // WAL + a single writer avoids SQLITE_BUSY under our worker pool
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if encryptionKey != "" {
		if !sqlitedriver.EncryptionSupported {
			// Non-fatal: the nocgo build (modernc.org/sqlite) has no
			// SQLCipher support, and SQLite ignores the unknown pragma
			// without an error, so the check is made up front.
			log.Warn("sqlite encryption not supported by this build; continuing unencrypted")
		} else if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA key = '%s'", encryptionKey)); err != nil {
			log.Warn("sqlite encryption key rejected; continuing unencrypted")
		}
	}
	return nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.logFileDDL); err != nil {
		return fmt.Errorf("store: migrate log_files: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.logEntryDDL); err != nil {
		return fmt.Errorf("store: migrate log_entries: %w", err)
	}
	return nil
}

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rewrite(q), args...)
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rewrite(q), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rewrite(q), args...)
}

// SaveLogFile inserts record in state=pending and returns its id.
func (s *SQLStore) SaveLogFile(ctx context.Context, record *sparklog.LogFile) (int64, error) {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.State == "" {
		record.State = sparklog.StatePending
	}

	const insert = `INSERT INTO log_files
		(content_hash, stored_filename, original_filename, path, size_bytes, mime_hint,
		 source, detected_mode, detected_language, state, processed_at, error_message,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := []any{
		record.ContentHash, record.StoredFilename, record.OriginalFilename, record.Path,
		record.SizeBytes, record.MIMEHint, string(record.Source), string(record.DetectedMode),
		string(record.DetectedLanguage), string(record.State), unixOrNil(record.ProcessedAt),
		record.ErrorMessage, record.CreatedAt.UnixMilli(), record.UpdatedAt.UnixMilli(),
	}

	if s.dialect.usesReturning {
		var id int64
		if err := s.queryRow(ctx, insert+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("store: save log file: %w", err)
		}
		record.ID = id
		return id, nil
	}

	res, err := s.exec(ctx, insert, args...)
	if err != nil {
		return 0, fmt.Errorf("store: save log file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: save log file: %w", err)
	}
	record.ID = id
	return id, nil
}

// SaveEntriesAndFinalize persists entries and marks fileID processed in one
// atomic commit, along with the detected language and mode.
func (s *SQLStore) SaveEntriesAndFinalize(ctx context.Context, fileID int64, entries []sparklog.LogEntry, language sparklog.SparkLanguage, mode sparklog.SparkMode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO log_entries
		(log_file_id, line_number, raw_line, message, ts, level, component, executor_id,
		 has_stack_trace, stack_trace, exception_type, category, is_error, is_warning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, s.dialect.rewrite(insert))
	if err != nil {
		return fmt.Errorf("store: prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if _, err := stmt.ExecContext(ctx,
			fileID, e.LineNumber, e.RawLine, e.Message, unixOrNil(e.Timestamp),
			nullString(string(e.Level)), nullString(e.Component), nullString(e.ExecutorID),
			boolToInt(e.HasStackTrace), nullString(e.StackTrace), nullString(e.ExceptionType),
			nullString(string(e.Category)), boolToInt(e.IsError), boolToInt(e.IsWarning),
		); err != nil {
			return fmt.Errorf("store: insert entry at line %d: %w", e.LineNumber, err)
		}
		// Inserted one row at a time through a prepared statement, so
		// memory stays bounded regardless of file size; entryBatchSize
		// only paces the progress log below, the commit below still
		// covers every row in one transaction.
		if (i+1)%entryBatchSize == 0 {
			log.Debug("persisting entries", zap.Int64("file_id", fileID), zap.Int("persisted", i+1))
		}
	}

	now := time.Now().UTC()
	const finalize = `UPDATE log_files SET state = ?, processed_at = ?, error_message = NULL,
		detected_language = ?, detected_mode = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, s.dialect.rewrite(finalize),
		string(sparklog.StateProcessed), now.UnixMilli(), string(language), string(mode),
		now.UnixMilli(), fileID,
	); err != nil {
		return fmt.Errorf("store: finalize log file %d: %w", fileID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// MarkFailed records a terminal parse failure for fileID.
func (s *SQLStore) MarkFailed(ctx context.Context, fileID int64, errMessage string) error {
	const q = `UPDATE log_files SET state = ?, error_message = ?, updated_at = ? WHERE id = ?`
	_, err := s.exec(ctx, q, string(sparklog.StateFailed), errMessage, time.Now().UTC().UnixMilli(), fileID)
	if err != nil {
		return fmt.Errorf("store: mark failed %d: %w", fileID, err)
	}
	return nil
}

// LoadLogFile returns the record for fileID, or ErrNotFound.
func (s *SQLStore) LoadLogFile(ctx context.Context, fileID int64) (*sparklog.LogFile, error) {
	const q = `SELECT id, content_hash, stored_filename, original_filename, path, size_bytes,
		mime_hint, source, detected_mode, detected_language, state, processed_at,
		error_message, created_at, updated_at FROM log_files WHERE id = ?`
	row := s.queryRow(ctx, q, fileID)
	record, err := scanLogFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load log file %d: %w", fileID, err)
	}
	return record, nil
}

// ListLogFiles returns LogFile records matching filter, newest first.
func (s *SQLStore) ListLogFiles(ctx context.Context, filter ListFilter) ([]sparklog.LogFile, error) {
	q := `SELECT id, content_hash, stored_filename, original_filename, path, size_bytes,
		mime_hint, source, detected_mode, detected_language, state, processed_at,
		error_message, created_at, updated_at FROM log_files`
	var (
		clauses []string
		args    []any
	)
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, string(filter.State))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY id DESC"
	q += limitOffsetClause(filter.Limit, filter.Offset)

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list log files: %w", err)
	}
	defer rows.Close()

	var out []sparklog.LogFile
	for rows.Next() {
		record, err := scanLogFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan log file: %w", err)
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

// ListEntries returns LogEntry rows for fileID matching filter, in
// ascending line_number order, along with the total matching count.
func (s *SQLStore) ListEntries(ctx context.Context, fileID int64, filter EntryFilter) ([]sparklog.LogEntry, int, error) {
	base := "FROM log_entries WHERE log_file_id = ?"
	args := []any{fileID}
	if filter.Level != "" {
		base += " AND level = ?"
		args = append(args, string(filter.Level))
	}
	if filter.Category != "" {
		base += " AND category = ?"
		args = append(args, string(filter.Category))
	}

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count entries: %w", err)
	}

	q := `SELECT id, log_file_id, line_number, raw_line, message, ts, level, component,
		executor_id, has_stack_trace, stack_trace, exception_type, category, is_error,
		is_warning ` + base + " ORDER BY line_number ASC" + limitOffsetClause(filter.Limit, filter.Offset)

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list entries: %w", err)
	}
	defer rows.Close()

	var out []sparklog.LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// Stats summarizes fileID's entries.
func (s *SQLStore) Stats(ctx context.Context, fileID int64) (Stats, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(is_error), 0), COALESCE(SUM(is_warning), 0)
		FROM log_entries WHERE log_file_id = ?`
	var st Stats
	if err := s.queryRow(ctx, q, fileID).Scan(&st.EntryCount, &st.ErrorCount, &st.WarningCount); err != nil {
		return Stats{}, fmt.Errorf("store: stats %d: %w", fileID, err)
	}
	return st, nil
}

// DeleteLogFile removes fileID; the schema's ON DELETE CASCADE (sqlite
// with foreign_keys=ON, postgres, mysql) removes its entries too.
func (s *SQLStore) DeleteLogFile(ctx context.Context, fileID int64) error {
	_, err := s.exec(ctx, "DELETE FROM log_files WHERE id = ?", fileID)
	if err != nil {
		return fmt.Errorf("store: delete log file %d: %w", fileID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

var _ Store = (*SQLStore)(nil)

func limitOffsetClause(limit, offset int) string {
	if limit <= 0 {
		limit = 100
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scanFunc func(dest ...any) error

func scanLogFile(scan scanFunc) (*sparklog.LogFile, error) {
	var (
		r                                  sparklog.LogFile
		mimeHint, errMsg                   sql.NullString
		mode, language                     sql.NullString
		processedAt                        sql.NullInt64
		createdAt, updatedAt               int64
		source, state                      string
	)
	if err := scan(&r.ID, &r.ContentHash, &r.StoredFilename, &r.OriginalFilename, &r.Path,
		&r.SizeBytes, &mimeHint, &source, &mode, &language, &state, &processedAt, &errMsg,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.MIMEHint = mimeHint.String
	r.Source = sparklog.IngestionSource(source)
	r.DetectedMode = sparklog.SparkMode(mode.String)
	r.DetectedLanguage = sparklog.SparkLanguage(language.String)
	r.State = sparklog.ProcessingState(state)
	r.ErrorMessage = errMsg.String
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if processedAt.Valid {
		r.ProcessedAt = timeFromMillis(&processedAt.Int64)
	}
	return &r, nil
}

func scanLogEntry(scan scanFunc) (*sparklog.LogEntry, error) {
	var (
		e                                                                  sparklog.LogEntry
		ts                                                                 sql.NullInt64
		level, component, executorID, stackTrace, exceptionType, category sql.NullString
		hasStack, isError, isWarning                                      int
	)
	if err := scan(&e.ID, &e.LogFileID, &e.LineNumber, &e.RawLine, &e.Message, &ts, &level,
		&component, &executorID, &hasStack, &stackTrace, &exceptionType, &category,
		&isError, &isWarning); err != nil {
		return nil, err
	}
	e.Level = sparklog.Level(level.String)
	e.Component = component.String
	e.ExecutorID = executorID.String
	e.HasStackTrace = hasStack != 0
	e.StackTrace = stackTrace.String
	e.ExceptionType = exceptionType.String
	e.Category = sparklog.Category(category.String)
	e.IsError = isError != 0
	e.IsWarning = isWarning != 0
	if ts.Valid {
		e.Timestamp = timeFromMillis(&ts.Int64)
	}
	return &e, nil
}
