package main

import (
	"flag"
	"os"
	"runtime"

	"Scroll3D/internal/config"
	"Scroll3D/internal/engine"
	"Scroll3D/internal/logger"

	"go.uber.org/zap"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "scene file (YAML); the built-in chair scene when empty")
	touch := flag.Bool("touch", false, "treat the host as a touch device and ignore resizes")
	watch := flag.Bool("watch", false, "reload rotation factors when the scene file changes")
	logLevel := flag.String("log-level", "", "debug, info, warn or error; overrides the scene file")
	flag.Parse()

	logger.Init()
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Log.Error("Could not load config", zap.Error(err))
			os.Exit(1)
		}
		cfg = loaded
	}

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			logger.Log.Error("Invalid log level", zap.Error(err))
			os.Exit(1)
		}
	}

	device := engine.Device{Touch: cfg.Device.Touch || *touch}
	viewer, err := engine.NewViewer(cfg, device)
	if err != nil {
		logger.Log.Error("Could not build scenes", zap.Error(err))
		os.Exit(1)
	}

	if *watch {
		if *configPath == "" {
			logger.Log.Warn("-watch needs -config, ignoring")
		} else if err := viewer.Watch(*configPath); err != nil {
			logger.Log.Error("Could not watch config", zap.Error(err))
		}
	}

	logger.Log.Info("Scroll3D starting",
		zap.Int("entries", len(cfg.Entries)),
		zap.Bool("touch", device.Touch))
	if err := viewer.Run(100, 100); err != nil {
		logger.Log.Error("Viewer stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
