// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ffutop/topology-server/internal/config"
	"github.com/ffutop/topology-server/internal/gateway"
	"github.com/ffutop/topology-server/internal/ingest"
	"github.com/ffutop/topology-server/internal/metrics"
	"github.com/ffutop/topology-server/internal/snapshot"
	"github.com/ffutop/topology-server/internal/store"
	"github.com/ffutop/topology-server/internal/supervisor"
	"github.com/ffutop/topology-server/transport"
	"github.com/ffutop/topology-server/transport/tcp"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Path to config file")
	pflag.Parse()

	// Load Configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	slog.Info("Starting topology snapshot server...")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Storage is required: never serve without it.
	storage, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("Failed to open snapshot store. Exiting.", "type", cfg.Store.Type, "err", err)
		os.Exit(1)
	}
	defer storage.Close()

	// Best-effort pre-population
	scanner := ingest.NewScanner(cfg.Documents.Dir, cfg.Documents.Extension, storage)
	if _, err := scanner.ScanDirectory(ctx); err != nil {
		slog.Warn("Initial document scan failed", "dir", cfg.Documents.Dir, "err", err)
	}

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	tree.AddIngestService(ingest.NewWatcher(scanner, cfg.Watch.Interval, ingest.NewModTimes()))

	service := snapshot.NewService(storage, cfg.Server.Command)
	server := tcp.NewServer(cfg.Server.Address)
	server.RequestSize = len(cfg.Server.Command)
	upstreams := []transport.Upstream{server}
	tree.AddServingService(gateway.NewGateway("snapshot", upstreams, service))

	if cfg.Metrics.Address != "" {
		tree.AddServingService(metrics.NewServer(cfg.Metrics.Address))
	}

	// Run until SIGINT/SIGTERM
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Supervisor stopped with error", "err", err)
	}

	slog.Info("Shutting down...")
	slog.Info("Goodbye.")
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
