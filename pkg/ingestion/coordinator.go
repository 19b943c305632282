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

// Package ingestion implements the Ingestion Coordinator: it accepts bytes
// via push (upload, API) or pull (filesystem watch), persists the blob,
// records a LogFile, and schedules parsing on a bounded worker pool.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/pkg/config"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
	"github.com/sparklogio/sparklogd/pkg/store"
)

// ErrQueueFull is returned by Push when the parsing job queue has no
// capacity left; per the concurrency design, this is surfaced to the
// caller as a 503 rather than blocking the ingestion request.
var ErrQueueFull = errors.New("ingestion: parsing queue is full")

type job struct {
	fileID int64
	path   string
	ctx    context.Context
	cancel context.CancelFunc
}

// Coordinator accepts log bytes, persists them, and schedules parsing. It
// records ingested files and parse outcomes in the store and owns the
// background worker pool; the parsing pipeline itself is stateless and shared
// across workers.
type Coordinator struct {
	cfg    config.IngestionConfig
	store  store.Store
	parser *sparklog.Parser

	jobs chan job
	wg   sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	running map[int64]context.CancelFunc
}

// New builds a Coordinator and starts its worker pool. Callers must call
// Shutdown when done to drain in-flight jobs.
func New(cfg config.IngestionConfig, st store.Store, rules *sparklog.Rules) (*Coordinator, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ingestion: create upload dir: %w", err)
	}
	if err := os.MkdirAll(cfg.WatchDir, 0o755); err != nil {
		return nil, fmt.Errorf("ingestion: create watch dir: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:        cfg,
		store:      st,
		parser:     sparklog.NewParser(rules),
		jobs:       make(chan job, queueSize),
		baseCtx:    ctx,
		baseCancel: cancel,
		running:    make(map[int64]context.CancelFunc),
	}

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c, nil
}

// Shutdown stops accepting new work and waits for in-flight jobs to finish
// or observe cancellation at their next HEAD boundary.
func (c *Coordinator) Shutdown() {
	c.baseCancel()
	close(c.jobs)
	c.wg.Wait()
}

// Push validates, fingerprints, and stores raw bytes as a new LogFile, then
// enqueues it for parsing. source records how the bytes arrived (upload,
// api, folder_watch).
func (c *Coordinator) Push(ctx context.Context, originalFilename string, data []byte, source sparklog.IngestionSource) (*sparklog.LogFile, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !slices.Contains(c.cfg.Extensions(), ext) {
		return nil, sparklog.ErrUnsupportedFormat
	}
	if int64(len(data)) > c.cfg.MaxUploadSizeBytes() {
		return nil, sparklog.ErrTooLarge
	}

	hash := sparklog.Fingerprint(data)
	storedName := fmt.Sprintf("%s_%s_%s", time.Now().UTC().Format("20060102_150405"),
		sparklog.ShortHash(hash, 8), sanitizeBasename(originalFilename))
	storedPath := filepath.Join(c.cfg.UploadDir, storedName)

	if err := writeAtomic(storedPath, data); err != nil {
		return nil, fmt.Errorf("ingestion: write upload: %w", err)
	}

	record := &sparklog.LogFile{
		ContentHash:      hash,
		StoredFilename:   storedName,
		OriginalFilename: originalFilename,
		Path:             storedPath,
		SizeBytes:        int64(len(data)),
		MIMEHint:         mimeHint(ext),
		Source:           source,
		State:            sparklog.StatePending,
	}

	id, err := c.store.SaveLogFile(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("ingestion: save log file: %w", err)
	}
	record.ID = id

	log.Info("log file ingested",
		zap.Int64("file_id", id), zap.String("source", string(source)),
		zap.String("hash", hash[:12]), zap.Int64("size_bytes", record.SizeBytes))

	if err := c.enqueue(id, storedPath); err != nil {
		log.Warn("parsing queue full; file left pending", zap.Int64("file_id", id))
		return record, err
	}
	return record, nil
}

// enqueue submits a parsing job without blocking; if the queue has no
// capacity it returns ErrQueueFull rather than applying backpressure to the
// caller, per the bounded-queue design note.
func (c *Coordinator) enqueue(fileID int64, path string) error {
	ctx, cancel := context.WithCancel(c.baseCtx)

	c.mu.Lock()
	c.running[fileID] = cancel
	c.mu.Unlock()

	select {
	case c.jobs <- job{fileID: fileID, path: path, ctx: ctx, cancel: cancel}:
		return nil
	default:
		cancel()
		c.mu.Lock()
		delete(c.running, fileID)
		c.mu.Unlock()
		return ErrQueueFull
	}
}

// Cancel aborts the in-flight parse of fileID, if any, at its next HEAD
// boundary. Returns false if no such job is running.
func (c *Coordinator) Cancel(fileID int64) bool {
	c.mu.Lock()
	cancel, ok := c.running[fileID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

func (c *Coordinator) clearJob(fileID int64) {
	c.mu.Lock()
	delete(c.running, fileID)
	c.mu.Unlock()
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for j := range c.jobs {
		c.process(j)
	}
}

// process runs the parsing pipeline for one job and persists the outcome.
// A decode or cancellation failure marks the file failed (terminal); a
// persistence failure leaves the file pending for a later retry, per the
// error taxonomy.
func (c *Coordinator) process(j job) {
	defer j.cancel()
	defer c.clearJob(j.fileID)

	result, err := c.parser.ParseFile(j.ctx, j.path)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, sparklog.ErrParseAborted) {
			reason = "cancelled"
		}
		if mfErr := c.store.MarkFailed(context.Background(), j.fileID, reason); mfErr != nil {
			log.Error("failed to record parse failure", zap.Int64("file_id", j.fileID), zap.Error(mfErr))
		}
		log.Warn("parse failed", zap.Int64("file_id", j.fileID), zap.Error(err))
		return
	}

	if err := c.store.SaveEntriesAndFinalize(context.Background(), j.fileID, result.Entries, result.Language, result.Mode); err != nil {
		log.Error("persistence error; file left pending for retry",
			zap.Int64("file_id", j.fileID), zap.Error(err))
		return
	}

	log.Info("log file parsed",
		zap.Int64("file_id", j.fileID), zap.Int("entries", len(result.Entries)),
		zap.String("mode", string(result.Mode)), zap.String("language", string(result.Language)))
}

func writeAtomic(finalPath string, data []byte) error {
	dir := filepath.Dir(finalPath)
	tmp := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, finalPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// sanitizeBasename keeps the original filename's basename only, so an
// upload can't escape the upload directory via path separators.
func sanitizeBasename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	return base
}

func mimeHint(ext string) string {
	switch ext {
	case ".gz":
		return "application/gzip"
	case ".zip":
		return "application/zip"
	case ".txt":
		return "text/plain"
	default:
		return "text/plain"
	}
}

// QueueDepth reports the number of jobs currently buffered, used by the
// health endpoint to surface backpressure before it trips ErrQueueFull.
func (c *Coordinator) QueueDepth() int {
	return len(c.jobs)
}
