package main

// ---------------------------------------------------------------------------
// cmd_watch.go — live auth log monitoring until interrupted
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/socsentry-project/socsentry/internal/collect"
	"github.com/socsentry-project/socsentry/internal/core"
	"github.com/socsentry-project/socsentry/internal/modules/authwatch"
	"github.com/socsentry-project/socsentry/internal/modules/phishing"
)

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	logPath := fs.String("log", "", "Auth log file to tail (overrides configured collectors)")
	tag := fs.String("tag", "", "Source tag for the -log collector")
	fs.Parse(args)

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}

	if *logPath != "" {
		cfg.Collectors = core.CollectorsConfig{
			Enabled: true,
			Sources: []core.CollectorConfig{{Type: "authlog", LogPath: *logPath, Tag: *tag}},
		}
	}
	if !cfg.Collectors.Enabled || len(cfg.Collectors.Sources) == 0 {
		errorf("no collectors configured; pass -log <path> or enable collectors in config")
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		errorf("creating engine: %v", err)
	}

	if err := engine.Registry.Register(authwatch.New()); err != nil {
		errorf("registering auth watch: %v", err)
	}
	if err := engine.Registry.Register(phishing.New()); err != nil {
		errorf("registering phishing scorer: %v", err)
	}

	if err := engine.Start(); err != nil {
		errorf("starting engine: %v", err)
	}

	manager := collect.NewManager(engine.Logger)
	if err := manager.StartAll(engine.Context(), cfg.Collectors, engine.Bus); err != nil {
		errorf("starting collectors: %v", err)
	}
	if manager.Count() == 0 {
		engine.Shutdown()
		errorf("no collectors running")
	}

	fmt.Println(cyan("watching, press Ctrl-C to stop"))

	// Block until SIGINT/SIGTERM, stop ingestion first, then drain the
	// pipeline so no queued alert is lost.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		engine.Logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-engine.Context().Done():
	}

	manager.StopAll()
	if err := engine.Shutdown(); err != nil {
		errorf("shutting down: %v", err)
	}

	fmt.Printf("%s %d alerts raised (%d suppressed), %d recent events buffered\n",
		cyan("summary:"), engine.Pipeline.Total(), engine.Pipeline.Dropped(), engine.Recent.Len())
}
