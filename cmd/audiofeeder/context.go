package main

import (
	"strings"
	"sync"
	"time"

	"audiofeeder/internal/config"
	"audiofeeder/internal/engine"
	"audiofeeder/internal/inventory"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/rendercache"
	"audiofeeder/internal/renderer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withEngine builds the full local engine stack for one command run and
// tears it down afterwards.
func (c *commandContext) withEngine(fn func(*engine.Engine, *rendercache.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevelName(),
		Format:      cfg.LogFormatName(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	cache, err := rendercache.NewManager(cfg, logger)
	if err != nil {
		return err
	}
	defer cache.Close()

	inv := inventory.NewFSReader(
		cfg.Paths.LibraryDir,
		cfg.FFmpeg.FFprobeBinary,
		time.Duration(cfg.FFmpeg.ProbeTimeoutSeconds)*time.Second,
		logger,
	)
	eng := engine.New(cfg, inv, cache, renderer.NewExecutor(cfg, logger), logger)
	return fn(eng, cache)
}
