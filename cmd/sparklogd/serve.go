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
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/pkg/config"
	"github.com/sparklogio/sparklogd/pkg/ingestion"
	"github.com/sparklogio/sparklogd/pkg/observability"
	"github.com/sparklogio/sparklogd/pkg/server"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
	"github.com/sparklogio/sparklogd/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sparklogd HTTP server",
	Long: `Start the sparklogd server.

The server will:
- Open the configured store (SQLite by default)
- Start the parsing worker pool and folder watcher
- Listen for ingestion and query requests over HTTP

Press Ctrl+C to gracefully shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := log.Init(log.Config(cfg.Logging)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	dsn := cfg.Store.DSN
	if dsn == "" {
		if err := os.MkdirAll(config.GetDataDir(), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		dsn = config.GetSubDir("sparklogd.db")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.StoreConfig{
		Driver:        cfg.Store.Driver,
		DSN:           dsn,
		EncryptionKey: cfg.Store.EncryptionKey,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	coord, err := ingestion.New(cfg.Ingestion, st, rules)
	if err != nil {
		return err
	}

	watcher, err := ingestion.NewWatcher(cfg.Ingestion, coord)
	if err != nil {
		return err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if err := watcher.Start(watchCtx); err != nil {
		return err
	}

	tracer := observability.NewZapTracer(log.Logger())
	srv := server.New(cfg.Server, cfg.Ingestion, st, coord, rules, tracer)

	if analyzer, err := buildAnalyzer(ctx); err != nil {
		log.Warn("analysis provider unavailable", zap.Error(err))
	} else if analyzer != nil {
		srv.SetAnalyzer(analyzer)
		log.Info("analysis provider configured",
			zap.String("provider", analyzer.Name()), zap.String("model", analyzer.Model()))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	watcher.Stop()
	cancelWatch()
	coord.Shutdown()
	_ = tracer.Flush(shutdownCtx)
	return nil
}

// loadRules compiles the classification/detection pattern set, applying
// the YAML override when one is configured.
func loadRules(cfg *config.Config) (*sparklog.Rules, error) {
	if cfg.Classify.RulesFile == "" {
		return sparklog.NewDefaultRules(), nil
	}
	rules, err := sparklog.LoadRulesFile(cfg.Classify.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules file: %w", err)
	}
	return rules, nil
}
