package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := strings.Join([]string{
		"[paths]",
		"library_dir = " + tomlString(filepath.Join(base, "library")),
		"render_dir = " + tomlString(filepath.Join(base, "render")),
		"log_dir = " + tomlString(filepath.Join(base, "logs")),
		"",
	}, "\n")
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func tomlString(v string) string {
	return `"` + strings.ReplaceAll(v, `\`, `\\`) + `"`
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Refuses to clobber an existing file.
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Error("expected second init to fail")
	}
}

func TestConfigShow(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCLI(t, []string{"config", "show"}, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "library_dir") || !strings.Contains(out, "[rendercache]") {
		t.Errorf("expected effective TOML, got:\n%s", out)
	}
}

func TestEntriesEmptyLibrary(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCLI(t, []string{"entries"}, configPath)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if !strings.Contains(out, "No entries found") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestModesUnknownEntry(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, []string{"modes", "ghost"}, configPath); err == nil {
		t.Error("expected unknown entry to fail")
	}
}

func TestRenderRejectsBadMode(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, []string{"render", "book-1", "shuffled"}, configPath); err == nil {
		t.Error("expected unknown mode to fail")
	}
}
