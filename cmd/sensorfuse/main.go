// Package main implements the entry point for the SensorFuse pipeline.
// SensorFuse ingests multi-sensor reading streams, computes windowed
// statistical and information-theoretic features, and fuses evidence across
// sensors into classified detections.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/engine"
	"github.com/c360/sensorfuse/errors"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "sensorfuse"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "sensorfuse.yaml", "path to configuration file")
	validateOnly := flag.Bool("validate", false, "validate configuration and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}

	// A configuration error is fatal: the pipeline refuses to start
	cfg, err := config.Load(*configPath)
	if err != nil {
		return errors.Wrap(err, "main", "run", "load configuration")
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *validateOnly {
		logger.Info("configuration is valid", "path", *configPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		"app", appName,
		"version", Version,
		"config", *configPath,
		"sensors", len(cfg.Sensors))

	return engine.New(cfg, logger).Run(ctx)
}

// newLogger builds the root slog logger from the logging config
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
