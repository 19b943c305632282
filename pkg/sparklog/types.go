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

// Package sparklog implements the Apache Spark log parsing and
// normalization engine: decoding, lexing, entry assembly, field
// extraction, error classification, and deployment-mode/language
// detection.
package sparklog

import "time"

// Level is a normalized Spark log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// Category is a coarse error bucket assigned to error/warning entries.
type Category string

const (
	CategoryMemory        Category = "memory"
	CategoryShuffle       Category = "shuffle"
	CategoryNetwork       Category = "network"
	CategorySerialization Category = "serialization"
	CategoryConfiguration Category = "configuration"
	CategoryPermission    Category = "permission"
	CategoryStorage       Category = "storage"
	CategoryExecutor      Category = "executor"
)

// SparkMode is the inferred Spark deployment model.
type SparkMode string

const (
	ModeStandalone SparkMode = "standalone"
	ModeYARN       SparkMode = "yarn"
	ModeKubernetes SparkMode = "kubernetes"
	ModeLocal      SparkMode = "local"
	ModeUnknown    SparkMode = "unknown"
)

// SparkLanguage is the inferred source language of the Spark application.
type SparkLanguage string

const (
	LanguagePython  SparkLanguage = "python"
	LanguageScala   SparkLanguage = "scala"
	LanguageJava    SparkLanguage = "java"
	LanguageSQL     SparkLanguage = "sql"
	LanguageR       SparkLanguage = "r"
	LanguageUnknown SparkLanguage = "unknown"
)

// IngestionSource records how a LogFile entered the system.
type IngestionSource string

const (
	SourceUpload     IngestionSource = "upload"
	SourceFolderWatch IngestionSource = "folder_watch"
	SourceAPI        IngestionSource = "api"
)

// ProcessingState is the lifecycle state of a LogFile.
type ProcessingState string

const (
	StatePending   ProcessingState = "pending"
	StateProcessed ProcessingState = "processed"
	StateFailed    ProcessingState = "failed"
)

// LogFile is an ingested artifact: the bytes plus their processing state.
type LogFile struct {
	ID               int64
	ContentHash      string
	StoredFilename   string
	OriginalFilename string
	Path             string
	SizeBytes        int64
	MIMEHint         string
	Source           IngestionSource
	DetectedMode     SparkMode
	DetectedLanguage SparkLanguage
	State            ProcessingState
	ProcessedAt      *time.Time
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LogEntry is one logical event reconstructed from one or more physical
// lines of a LogFile. IsError and IsWarning are mutually exclusive: an
// exception found on the head line, in a message continuation line, or in a
// "Caused by" stack line makes it an error, even when the level token said
// WARN.
type LogEntry struct {
	ID            int64
	LogFileID     int64
	LineNumber    int
	RawLine       string
	Message       string
	Timestamp     *time.Time
	Level         Level // empty string means unset
	Component     string
	ExecutorID    string
	HasStackTrace bool
	StackTrace    string
	ExceptionType string
	Category      Category // empty string means unset
	IsError       bool
	IsWarning     bool
}

// markException records exc as the entry's exception type (first match
// wins) and applies the exception-implies-error precedence: the entry
// becomes an error and stops being a warning, keeping IsError and
// IsWarning mutually exclusive.
func (e *LogEntry) markException(exc string) {
	if e.ExceptionType == "" {
		e.ExceptionType = exc
	}
	e.IsError = true
	e.IsWarning = false
}
