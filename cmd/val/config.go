package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"val/internal/trace"
)

const configFileName = "val.toml"

type valConfig struct {
	Dump  dumpConfig  `toml:"dump"`
	Trace traceConfig `toml:"trace"`
}

type dumpConfig struct {
	Header bool `toml:"header"`
	Jobs   int  `toml:"jobs"`
}

type traceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Mode   string `toml:"mode"`
}

// loadedConfig is a decoded val.toml together with what it set explicitly.
type loadedConfig struct {
	Path   string
	Config valConfig
	meta   toml.MetaData
}

// IsDefined reports whether the file set key; a nil config sets nothing.
func (c *loadedConfig) IsDefined(key ...string) bool {
	return c != nil && c.meta.IsDefined(key...)
}

func findValToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig reads the config at path, or the nearest val.toml above
// startDir when path is empty. A missing val.toml is not an error.
func loadConfig(path, startDir string) (*loadedConfig, error) {
	if path == "" {
		found, ok, err := findValToml(startDir)
		if err != nil || !ok {
			return nil, err
		}
		path = found
	}
	var cfg valConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Dump.Jobs < 0 {
		return nil, fmt.Errorf("%s: [dump].jobs must not be negative", path)
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			return nil, fmt.Errorf("%s: [trace].level: %w", path, err)
		}
	}
	if meta.IsDefined("trace", "mode") {
		if _, err := trace.ParseMode(cfg.Trace.Mode); err != nil {
			return nil, fmt.Errorf("%s: [trace].mode: %w", path, err)
		}
	}
	return &loadedConfig{Path: path, Config: cfg, meta: meta}, nil
}
