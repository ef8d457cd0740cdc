package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"audiofeeder/internal/config"
	"audiofeeder/internal/services"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := []byte("#!/bin/sh\necho \"ffmpeg version 7.1-test\"\nexit 0\n")
	if err := os.WriteFile(path, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version == "" {
		t.Errorf("expected version banner for available tool")
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
}

func TestVerifyFailsOnMissingTool(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.FFmpegBinary = "clearly-not-present-binary"
	cfg.FFmpeg.FFprobeBinary = "also-not-present"

	err := Verify(&cfg)
	if err == nil {
		t.Fatal("expected verification failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestVerifyPassesWithStubs(t *testing.T) {
	binDir := t.TempDir()
	cfg := config.Default()
	cfg.FFmpeg.FFmpegBinary = writeStub(t, binDir, "ffmpeg")
	cfg.FFmpeg.FFprobeBinary = writeStub(t, binDir, "ffprobe")

	if err := Verify(&cfg); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
