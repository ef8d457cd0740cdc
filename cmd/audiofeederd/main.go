package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"audiofeeder/internal/config"
	"audiofeeder/internal/daemon"
	"audiofeeder/internal/deps"
	"audiofeeder/internal/engine"
	"audiofeeder/internal/inventory"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/rendercache"
	"audiofeeder/internal/renderer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := deps.Verify(cfg); err != nil {
		logger.Error("dependency check failed", logging.Error(err))
		return
	}

	cache, err := rendercache.NewManager(cfg, logger)
	if err != nil {
		logger.Error("open render cache", logging.Error(err))
		return
	}

	inv := inventory.NewFSReader(
		cfg.Paths.LibraryDir,
		cfg.FFmpeg.FFprobeBinary,
		time.Duration(cfg.FFmpeg.ProbeTimeoutSeconds)*time.Second,
		logger,
	)
	eng := engine.New(cfg, inv, cache, renderer.NewExecutor(cfg, logger), logger)

	d, err := daemon.New(cfg, eng, cache, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = cache.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	d.Stop()
}
