package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindValTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), "[dump]\nheader = true\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := findValToml(nested)
	if err != nil || !ok {
		t.Fatalf("findValToml: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, configFileName) {
		t.Fatalf("found %s", path)
	}
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), `
[dump]
header = true
jobs = 4

[trace]
level = "detail"
mode = "both"
`)
	cfg, err := loadConfig("", root)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Config.Dump.Header || cfg.Config.Dump.Jobs != 4 {
		t.Fatalf("unexpected dump config %+v", cfg.Config.Dump)
	}
	if !cfg.IsDefined("trace", "level") || cfg.IsDefined("trace", "output") {
		t.Fatalf("IsDefined does not reflect the file")
	}
	if cfg.Config.Trace.Mode != "both" {
		t.Fatalf("mode = %q", cfg.Config.Trace.Mode)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := loadConfig("", t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg != nil || cfg.IsDefined("dump", "header") {
		t.Fatalf("a missing val.toml should yield no config")
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown_key", "[dump]\ncolour = true\n", "unknown keys: dump.colour"},
		{"negative_jobs", "[dump]\njobs = -1\n", "must not be negative"},
		{"bad_level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"bad_mode", "[trace]\nmode = \"sideways\"\n", "[trace].mode"},
		{"syntax", "[dump\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), configFileName)
			writeFile(t, path, tt.content)
			_, err := loadConfig(path, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
