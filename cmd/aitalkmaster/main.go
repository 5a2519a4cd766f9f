// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aitalkmaster/aitalkmaster/internal/app"
	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "config.yaml", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("aitalkmaster %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	var output io.Writer = os.Stdout
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", cfg.Server.LogFile, err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		output = io.MultiWriter(os.Stdout, f)
	}
	log.Configure(log.Config{
		Output:  output,
		Service: "aitalkmaster",
	})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, *configPath)
	if err != nil {
		logger.Fatal().Err(err).
			Str(log.FieldEvent, "main.bootstrap_failed").
			Msg("could not assemble service")
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).
			Str(log.FieldEvent, "main.run_failed").
			Msg("service exited with error")
	}
}
