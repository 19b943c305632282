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
	"fmt"
	"strings"
)

// dialect isolates the handful of ways SQLite, PostgreSQL, and MySQL
// differ for the schema and queries this package needs: placeholder
// syntax, autoincrement DDL, and how a newly inserted id is recovered.
type dialect struct {
	name           string
	logFileDDL     string
	logEntryDDL    string
	usesReturning  bool // true for postgres: INSERT ... RETURNING id
	usesQuestion   bool // true when the driver itself wants literal "?"
}

var sqliteDialect = dialect{
	name:         "sqlite",
	usesQuestion: true,
	logFileDDL: `CREATE TABLE IF NOT EXISTS log_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash TEXT NOT NULL,
		stored_filename TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		mime_hint TEXT,
		source TEXT NOT NULL,
		detected_mode TEXT,
		detected_language TEXT,
		state TEXT NOT NULL,
		processed_at INTEGER,
		error_message TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	logEntryDDL: `CREATE TABLE IF NOT EXISTS log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_file_id INTEGER NOT NULL REFERENCES log_files(id) ON DELETE CASCADE,
		line_number INTEGER NOT NULL,
		raw_line TEXT NOT NULL,
		message TEXT NOT NULL,
		ts INTEGER,
		level TEXT,
		component TEXT,
		executor_id TEXT,
		has_stack_trace INTEGER NOT NULL,
		stack_trace TEXT,
		exception_type TEXT,
		category TEXT,
		is_error INTEGER NOT NULL,
		is_warning INTEGER NOT NULL
	)`,
}

var postgresDialect = dialect{
	name:          "postgres",
	usesReturning: true,
	logFileDDL: `CREATE TABLE IF NOT EXISTS log_files (
		id BIGSERIAL PRIMARY KEY,
		content_hash TEXT NOT NULL,
		stored_filename TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		mime_hint TEXT,
		source TEXT NOT NULL,
		detected_mode TEXT,
		detected_language TEXT,
		state TEXT NOT NULL,
		processed_at BIGINT,
		error_message TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	logEntryDDL: `CREATE TABLE IF NOT EXISTS log_entries (
		id BIGSERIAL PRIMARY KEY,
		log_file_id BIGINT NOT NULL REFERENCES log_files(id) ON DELETE CASCADE,
		line_number INTEGER NOT NULL,
		raw_line TEXT NOT NULL,
		message TEXT NOT NULL,
		ts BIGINT,
		level TEXT,
		component TEXT,
		executor_id TEXT,
		has_stack_trace SMALLINT NOT NULL,
		stack_trace TEXT,
		exception_type TEXT,
		category TEXT,
		is_error SMALLINT NOT NULL,
		is_warning SMALLINT NOT NULL
	)`,
}

var mysqlDialect = dialect{
	name:         "mysql",
	usesQuestion: true,
	logFileDDL: `CREATE TABLE IF NOT EXISTS log_files (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		content_hash VARCHAR(64) NOT NULL,
		stored_filename VARCHAR(512) NOT NULL,
		original_filename VARCHAR(512) NOT NULL,
		path VARCHAR(1024) NOT NULL,
		size_bytes BIGINT NOT NULL,
		mime_hint VARCHAR(255),
		source VARCHAR(32) NOT NULL,
		detected_mode VARCHAR(32),
		detected_language VARCHAR(32),
		state VARCHAR(32) NOT NULL,
		processed_at BIGINT,
		error_message TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	logEntryDDL: `CREATE TABLE IF NOT EXISTS log_entries (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		log_file_id BIGINT NOT NULL,
		line_number INT NOT NULL,
		raw_line TEXT NOT NULL,
		message TEXT NOT NULL,
		ts BIGINT,
		level VARCHAR(16),
		component VARCHAR(255),
		executor_id VARCHAR(64),
		has_stack_trace TINYINT NOT NULL,
		stack_trace MEDIUMTEXT,
		exception_type VARCHAR(255),
		category VARCHAR(32),
		is_error TINYINT NOT NULL,
		is_warning TINYINT NOT NULL,
		FOREIGN KEY (log_file_id) REFERENCES log_files(id) ON DELETE CASCADE
	)`,
}

// rewrite converts a query written with positional "?" placeholders into
// the dialect's native placeholder syntax. Queries in this package never
// embed a literal "?" in a string constant, so a straight sequential
// replace is safe.
func (d dialect) rewrite(query string) string {
	if d.usesQuestion {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
