package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/pharmacy-api/alternatives"
	"github.com/giygas/pharmacy-api/config"
	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/embedding"
	"github.com/giygas/pharmacy-api/handlers"
	"github.com/giygas/pharmacy-api/health"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser"
	"github.com/giygas/pharmacy-api/prescriptions"
	"github.com/giygas/pharmacy-api/scheduler"
	"github.com/giygas/pharmacy-api/server"
	"github.com/giygas/pharmacy-api/validation"
	"github.com/giygas/pharmacy-api/vectorindex"
	"github.com/joho/godotenv"
)

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.InitLoggerWithLevel(cfg.LogDir, logging.GetConsoleLogLevel(cfg.Env, cfg.LogLevel, false))

	err = run(cfg)
	if err != nil {
		logging.Error("Service stopped with error", "error", err)
	}
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnv reads .env from the working directory, falling back to the
// executable's directory
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to get executable path:", err)
		os.Exit(1)
	}
	if err := os.Chdir(filepath.Dir(ex)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to change directory:", err)
		os.Exit(1)
	}
	_ = godotenv.Load()
}

func run(cfg *config.Config) error {
	store := data.NewDataContainer()
	parser := medicinesparser.NewMedicinesParser()

	provider, err := embedding.New(cfg)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	var index *vectorindex.Index
	if provider != nil {
		index = vectorindex.New(provider, vectorindex.Options{
			Concurrency: cfg.EmbeddingConcurrency,
			Timeout:     cfg.EmbeddingTimeout,
		})
	}

	svc := alternatives.NewService(cfg.AlternativeStrategy, store, index)
	processor := prescriptions.NewProcessor(store, svc, svc.Strategy())

	healthOpts := health.Options{Strategy: svc.Strategy(), Schedule: cfg.RefreshSchedule}
	schedOpts := scheduler.Options{CatalogPath: cfg.CatalogFile, Schedule: cfg.RefreshSchedule}
	// Only the embedding strategy reads the index
	if index != nil && svc.Strategy() == config.StrategyEmbedding {
		healthOpts.Index = index
		schedOpts.Index = index
	}

	logging.Info("Starting pharmacy API",
		"env", cfg.Env.String(),
		"strategy", svc.Strategy(),
		"embedding_provider", cfg.EmbeddingProvider,
		"catalog", cfg.CatalogFile,
	)

	sched := scheduler.NewScheduler(store, parser, schedOpts)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(
		store,
		validation.NewDataValidator(),
		health.NewHealthChecker(store, healthOpts),
		handlers.Services{Alternatives: svc, Processor: processor},
	)
	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
