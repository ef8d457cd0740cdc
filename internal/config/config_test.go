package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiofeeder/internal/services"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("found should be false for a missing config file")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Render.TargetSegmentSeconds != defaultTargetSegmentSeconds {
		t.Errorf("TargetSegmentSeconds = %d, want default %d", cfg.Render.TargetSegmentSeconds, defaultTargetSegmentSeconds)
	}
	if cfg.Render.MinTailSeconds != defaultTargetSegmentSeconds/4 {
		t.Errorf("MinTailSeconds = %d, want %d", cfg.Render.MinTailSeconds, defaultTargetSegmentSeconds/4)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + dir + `/library"
render_dir = "` + dir + `/renders"
log_dir = "` + dir + `/logs"

[render]
target_segment_seconds = 1800
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Error("found should be true")
	}
	if cfg.Render.TargetSegmentSeconds != 1800 {
		t.Errorf("TargetSegmentSeconds = %d, want 1800", cfg.Render.TargetSegmentSeconds)
	}
	if cfg.Render.MinTailSeconds != 450 {
		t.Errorf("MinTailSeconds = %d, want 450 (target/4)", cfg.Render.MinTailSeconds)
	}
	if cfg.FFmpeg.FFmpegBinary != "ffmpeg" {
		t.Errorf("FFmpegBinary = %q, want ffmpeg default", cfg.FFmpeg.FFmpegBinary)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`log_format = "xml"`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for bad log_format")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("error should be tagged ErrConfiguration: %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[render]") {
		t.Error("sample config missing [render] section")
	}
	if err := WriteSample(path); err == nil {
		t.Error("second WriteSample should refuse to overwrite")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/media")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "media") {
		t.Errorf("expandPath(~/media) = %q", got)
	}
}
