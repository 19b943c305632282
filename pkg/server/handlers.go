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
package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/pkg/analysis"
	"github.com/sparklogio/sparklogd/pkg/ingestion"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
	"github.com/sparklogio/sparklogd/pkg/store"
)

// uploadResponse is the success body for single-file ingestion.
type uploadResponse struct {
	FileID   int64  `json:"file_id"`
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	Status   string `json:"status"`
}

// batchItemResult is one file's outcome within a batch upload.
type batchItemResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	FileID   int64  `json:"file_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type batchResponse struct {
	Results   []batchItemResult `json:"results"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// logFileResponse is a LogFile read, with summary counts derived from the
// entries table at read time.
type logFileResponse struct {
	ID               int64      `json:"id"`
	ContentHash      string     `json:"file_hash"`
	StoredFilename   string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	SizeBytes        int64      `json:"file_size"`
	MIMEHint         string     `json:"mime_type,omitempty"`
	Source           string     `json:"upload_source"`
	DetectedMode     string     `json:"spark_mode,omitempty"`
	DetectedLanguage string     `json:"detected_language,omitempty"`
	State            string     `json:"status"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	EntryCount       int        `json:"entry_count"`
	ErrorCount       int        `json:"error_count"`
	WarningCount     int        `json:"warning_count"`
}

type logEntryResponse struct {
	ID            int64      `json:"id"`
	LogFileID     int64      `json:"log_file_id"`
	LineNumber    int        `json:"line_number"`
	RawLine       string     `json:"raw_line"`
	Message       string     `json:"message"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Level         string     `json:"level,omitempty"`
	Component     string     `json:"component,omitempty"`
	ExecutorID    string     `json:"executor_id,omitempty"`
	HasStackTrace bool       `json:"has_stack_trace"`
	StackTrace    string     `json:"stack_trace,omitempty"`
	ExceptionType string     `json:"exception_type,omitempty"`
	Category      string     `json:"category,omitempty"`
	IsError       bool       `json:"is_error"`
	IsWarning     bool       `json:"is_warning"`
}

type entriesResponse struct {
	Entries []logEntryResponse `json:"entries"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.coord.QueueDepth(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.openMultipartFile(w, r)
	if err != nil {
		return // response already written
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	record, err := s.coord.Push(r.Context(), header.Filename, data, sparklog.SourceUpload)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:   record.ID,
		Filename: record.OriginalFilename,
		FileSize: record.SizeBytes,
		Status:   "uploaded",
	})
}

func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.batchBodyLimit())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "parse multipart form: "+err.Error())
		return
	}

	var resp batchResponse
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			item := batchItemResult{Filename: header.Filename}

			f, err := header.Open()
			if err != nil {
				item.Error = err.Error()
				resp.Results = append(resp.Results, item)
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				item.Error = err.Error()
				resp.Results = append(resp.Results, item)
				continue
			}

			record, err := s.coord.Push(r.Context(), header.Filename, data, sparklog.SourceUpload)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Success = true
				item.FileID = record.ID
			}
			resp.Results = append(resp.Results, item)
		}
	}

	resp.Total = len(resp.Results)
	for _, item := range resp.Results {
		if item.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIIngest(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename query parameter is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.singleBodyLimit())
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeIngestError(w, sparklog.ErrTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	record, err := s.coord.Push(r.Context(), filename, data, sparklog.SourceAPI)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:   record.ID,
		Filename: record.OriginalFilename,
		FileSize: record.SizeBytes,
		Status:   "uploaded",
	})
}

func (s *Server) handleListLogFiles(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Source: sparklog.IngestionSource(r.URL.Query().Get("source")),
		State:  sparklog.ProcessingState(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}

	files, err := s.store.ListLogFiles(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]logFileResponse, 0, len(files))
	for i := range files {
		resp, err := s.logFileToResponse(r, &files[i])
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"log_files": out, "total": len(out)})
}

func (s *Server) handleGetLogFile(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadLogFile(w, r)
	if !ok {
		return
	}
	resp, err := s.logFileToResponse(r, record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadLogFile(w, r)
	if !ok {
		return
	}

	filter := store.EntryFilter{
		Level:    sparklog.Level(r.URL.Query().Get("level")),
		Category: sparklog.Category(r.URL.Query().Get("category")),
		Limit:    queryInt(r, "limit", 100),
		Offset:   queryInt(r, "offset", 0),
	}

	entries, total, err := s.store.ListEntries(r.Context(), record.ID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := entriesResponse{
		Entries: make([]logEntryResponse, 0, len(entries)),
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	for i := range entries {
		resp.Entries = append(resp.Entries, entryToResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteLogFile(w http.ResponseWriter, r *http.Request) {
	record, ok := s.loadLogFile(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteLogFile(r.Context(), record.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info("log file deleted", zap.Int64("file_id", record.ID))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": record.ID})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusNotImplemented, analysis.ErrNoProvider.Error())
		return
	}

	record, ok := s.loadLogFile(w, r)
	if !ok {
		return
	}
	if record.State != sparklog.StateProcessed {
		writeError(w, http.StatusConflict, "log file has not been processed yet")
		return
	}

	entries, _, err := s.store.ListEntries(r.Context(), record.ID, store.EntryFilter{Limit: 1000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	finding, err := s.analyzer.AnalyzeEntries(r.Context(), analysis.Request{File: record, Entries: entries})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, finding)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.rules.Categories()})
}

// openMultipartFile extracts the single uploaded file from r, writing the
// error response itself on failure.
func (s *Server) openMultipartFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.singleBodyLimit())
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeIngestError(w, sparklog.ErrTooLarge)
			return nil, nil, err
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return nil, nil, err
	}
	return file, header, nil
}

// singleBodyLimit allows one max-size payload plus multipart overhead.
func (s *Server) singleBodyLimit() int64 {
	return s.ingestCfg.MaxUploadSizeBytes() + 1<<20
}

// batchBodyLimit allows several max-size payloads per batch request.
func (s *Server) batchBodyLimit() int64 {
	return 10*s.ingestCfg.MaxUploadSizeBytes() + 1<<20
}

// writeIngestError maps the ingestion error taxonomy onto status codes.
func (s *Server) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sparklog.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sparklog.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ingestion.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// loadLogFile resolves the {id} path value, writing the error response
// itself when the id is malformed or unknown.
func (s *Server) loadLogFile(w http.ResponseWriter, r *http.Request) (*sparklog.LogFile, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log file id")
		return nil, false
	}
	record, err := s.store.LoadLogFile(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "log file not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return record, true
}

func (s *Server) logFileToResponse(r *http.Request, record *sparklog.LogFile) (logFileResponse, error) {
	stats, err := s.store.Stats(r.Context(), record.ID)
	if err != nil {
		return logFileResponse{}, err
	}
	return logFileResponse{
		ID:               record.ID,
		ContentHash:      record.ContentHash,
		StoredFilename:   record.StoredFilename,
		OriginalFilename: record.OriginalFilename,
		SizeBytes:        record.SizeBytes,
		MIMEHint:         record.MIMEHint,
		Source:           string(record.Source),
		DetectedMode:     string(record.DetectedMode),
		DetectedLanguage: string(record.DetectedLanguage),
		State:            string(record.State),
		ProcessedAt:      record.ProcessedAt,
		ErrorMessage:     record.ErrorMessage,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
		EntryCount:       stats.EntryCount,
		ErrorCount:       stats.ErrorCount,
		WarningCount:     stats.WarningCount,
	}, nil
}

func entryToResponse(e *sparklog.LogEntry) logEntryResponse {
	return logEntryResponse{
		ID:            e.ID,
		LogFileID:     e.LogFileID,
		LineNumber:    e.LineNumber,
		RawLine:       e.RawLine,
		Message:       e.Message,
		Timestamp:     e.Timestamp,
		Level:         string(e.Level),
		Component:     e.Component,
		ExecutorID:    e.ExecutorID,
		HasStackTrace: e.HasStackTrace,
		StackTrace:    e.StackTrace,
		ExceptionType: e.ExceptionType,
		Category:      string(e.Category),
		IsError:       e.IsError,
		IsWarning:     e.IsWarning,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
