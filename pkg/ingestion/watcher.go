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
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/pkg/config"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

// debounceMs matches the settle time a log-shipping agent typically needs
// between its last write and renaming a file into place.
const debounceMs = 500

// Watcher is the pull side of ingestion: it observes the configured watch
// directory via fsnotify for near-real-time pickup, with a robfig/cron
// poll as a fallback for filesystems or mounts where fsnotify events are
// unreliable (network shares, some container overlays).
type Watcher struct {
	cfg   config.IngestionConfig
	coord *Coordinator

	fsw *fsnotify.Watcher
	cr  *cron.Cron

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// seen records files already submitted so the poll fallback does not
	// resubmit an unchanged file on every tick; content-hash dedup across
	// restarts is explicitly deferred, so this is in-memory only.
	seen   map[string]struct{}
	seenMu sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a folder watcher over cfg.WatchDir that submits
// matching files to coord.
func NewWatcher(cfg config.IngestionConfig, coord *Coordinator) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ingestion: create file watcher: %w", err)
	}

	pollInterval := cfg.WatchPollIntervalSeconds
	if pollInterval <= 0 {
		pollInterval = 30
	}

	w := &Watcher{
		cfg:            cfg,
		coord:          coord,
		fsw:            fsw,
		cr:             cron.New(),
		debounceTimers: make(map[string]*time.Timer),
		seen:           make(map[string]struct{}),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}

	spec := fmt.Sprintf("@every %ds", pollInterval)
	if _, err := w.cr.AddFunc(spec, w.pollOnce); err != nil {
		return nil, fmt.Errorf("ingestion: schedule watch poll: %w", err)
	}

	return w, nil
}

// Start begins watching cfg.WatchDir. It performs one synchronous poll
// pass first so files already present at startup are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.cfg.WatchDir); err != nil {
		return fmt.Errorf("ingestion: watch directory %s: %w", w.cfg.WatchDir, err)
	}

	w.pollOnce()
	w.cr.Start()
	go w.loop(ctx)

	log.Info("folder watch started", zap.String("dir", w.cfg.WatchDir))
	return nil
}

// Stop halts the watcher and its poll schedule.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.cr.Stop()
	w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("folder watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if filepath.Base(event.Name)[0:1] == "." {
		return
	}
	w.debounce(ctx, event.Name)
}

// debounce coalesces the flurry of Create/Write events a single file copy
// or rename-into-place typically produces, submitting once after the file
// has been quiet for debounceMs.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[path]; ok {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(debounceMs*time.Millisecond, func() {
		w.submit(ctx, path)
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()
	})
}

// pollOnce scans the watch directory for matching files not yet seen,
// as a fallback for filesystems where fsnotify delivers no events.
func (w *Watcher) pollOnce() {
	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		log.Warn("folder watch poll failed", zap.String("dir", w.cfg.WatchDir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.submit(context.Background(), filepath.Join(w.cfg.WatchDir, e.Name()))
	}
}

func (w *Watcher) submit(ctx context.Context, path string) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(w.cfg.Extensions(), ext) {
		return
	}

	w.seenMu.Lock()
	if _, ok := w.seen[path]; ok {
		w.seenMu.Unlock()
		return
	}
	w.seen[path] = struct{}{}
	w.seenMu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("folder watch read failed", zap.String("path", path), zap.Error(err))
		w.seenMu.Lock()
		delete(w.seen, path)
		w.seenMu.Unlock()
		return
	}

	if _, err := w.coord.Push(ctx, name, data, sparklog.SourceFolderWatch); err != nil {
		log.Warn("folder watch submit failed", zap.String("path", path), zap.Error(err))
	}
}
