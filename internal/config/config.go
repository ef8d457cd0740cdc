package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	RenderDir  string `toml:"render_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Render contains segmentation and build parameters.
type Render struct {
	TargetSegmentSeconds int `toml:"target_segment_seconds"`
	MinTailSeconds       int `toml:"min_tail_seconds"`
	Workers              int `toml:"workers"`
}

// RenderCache contains configuration for the rendered artifact cache.
type RenderCache struct {
	MaxGiB        int     `toml:"max_gib"`
	FreeSpaceMin  float64 `toml:"free_space_min"`
	RetentionDays int     `toml:"retention_days"`
}

// FFmpeg contains external media tool configuration.
type FFmpeg struct {
	FFmpegBinary         string `toml:"ffmpeg_binary"`
	FFprobeBinary        string `toml:"ffprobe_binary"`
	ProbeTimeoutSeconds  int    `toml:"probe_timeout_seconds"`
	RenderTimeoutSeconds int    `toml:"render_timeout_seconds"`
}

// Config is the root configuration object.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Render      Render      `toml:"render"`
	RenderCache RenderCache `toml:"rendercache"`
	FFmpeg      FFmpeg      `toml:"ffmpeg"`
	LogLevel    string      `toml:"log_level"`
	LogFormat   string      `toml:"log_format"`
}

// Load reads configuration from the provided path, or from the default
// location when path is empty. It returns the effective config, the path it
// resolved, and whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	found := false
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		found = true
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, resolved, found, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, found, err
	}
	return &cfg, resolved, found, nil
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "audiofeeder", "config.toml"), nil
}

// WriteSample writes the embedded sample config to the given path, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists: %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the working directories the engine writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RenderDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogDirectory implements logging.Config.
func (c *Config) LogDirectory() string { return c.Paths.LogDir }

// LogLevelName implements logging.Config.
func (c *Config) LogLevelName() string { return c.LogLevel }

// LogFormatName implements logging.Config.
func (c *Config) LogFormatName() string { return c.LogFormat }

func resolvePath(path string) (string, error) {
	candidate := strings.TrimSpace(path)
	if candidate == "" {
		candidate = strings.TrimSpace(os.Getenv("AUDIOFEEDER_CONFIG"))
	}
	if candidate == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		candidate = def
	}
	return expandPath(candidate)
}
