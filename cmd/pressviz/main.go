// pressviz - on-screen keystroke and click visualizer
//
// pressviz shows the keys and modifier combinations being pressed as a
// badge near the bottom of the screen and draws a ring wherever the pointer
// clicks, for screen recordings and live presentations.
//
//	pressviz                      Run with the default configuration
//	pressviz -config path.toml    Use another configuration file
//	pressviz -headless            Capture and aggregate without windows
//	pressviz -log-level debug     Override the configured log level
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gioui.org/app"
	"gioui.org/widget/material"

	"pressviz/cmd/pressviz/internal/theme"
	"pressviz/internal/config"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

var version = "dev"

type flags struct {
	configPath string
	headless   bool
	logLevel   string
}

func main() {
	var f flags
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.StringVar(&f.configPath, "config", "", "path to configuration file (toml, yaml or json)")
	flag.BoolVar(&f.headless, "headless", false, "run without overlay windows")
	flag.StringVar(&f.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pressviz %s\n", version)
		return
	}

	if f.headless {
		os.Exit(run(f))
	}
	go func() {
		os.Exit(run(f))
	}()
	app.Main()
}

func run(f flags) int {
	path := f.configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}

	logCfg, err := cfg.LoggerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		return 1
	}
	defer logger.Close()

	if created {
		logger.Info("wrote default configuration", "path", path)
	}

	loader := config.NewLoader(path, logger)
	if _, err := loader.Load(); err != nil {
		logger.Error("loading configuration", "path", path, "error", err)
		return 1
	}

	// Surfaces are created when the pipeline starts, after a is assigned.
	var a *App
	var surfaces overlay.Factory
	if f.headless {
		surfaces, _ = overlay.RecorderFactory(1)
	} else {
		topology := func() screen.Topology { return a.Pipeline().Topology() }
		surfaces = newGioFactory(theme.NewTheme(material.NewTheme()), topology, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a = newApp(loader, logger, appOptions{Surfaces: surfaces})
	logger.Info("pressviz starting",
		"version", version,
		"config", path,
		"headless", f.headless)

	if err := a.Run(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		return 1
	}
	logger.Info("pressviz stopped")
	return 0
}
