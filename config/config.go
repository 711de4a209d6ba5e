// Copyright (c) 2026 The FileReg developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config handles the registry configuration file: a flat
// key=value format with '#' comments, one key per line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all registry configuration values.
type Config struct {
	DataDir          string // registry database location
	AdminPrincipal   string // administrator identity, 40-char hex
	MaxFilesPerOwner uint64 // per-owner file ceiling
	RotationCooldown uint64 // minimum height units between rotations
	LogLevel         string // debug, info, warn, error
	LogFile          string // empty = stderr
}

// DefaultDataDir returns the platform default data directory
// ({home}/.filereg).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".filereg")
}

// ConfigPath returns the path of the config file inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DefaultConfig returns the default configuration. The administrator
// principal has no sensible default and must be set before use.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		AdminPrincipal:   "",
		MaxFilesPerOwner: 1000,
		RotationCooldown: 10,
		LogLevel:         "info",
		LogFile:          "",
	}
}

// LoadConfig reads a config file. Missing keys keep their defaults;
// unknown keys are ignored for forward compatibility.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("config: read file: %w", err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "admin":
			cfg.AdminPrincipal = value
		case "maxfiles":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: maxfiles %q", ErrInvalidQuota, value)
			}
			cfg.MaxFilesPerOwner = n
		case "cooldown":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: cooldown %q", ErrInvalidCooldown, value)
			}
			cfg.RotationCooldown = n
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		}
	}

	return cfg, nil
}

// SaveConfig writes the configuration to path, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	var b strings.Builder
	b.WriteString("# File Registry Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "admin = %s\n", cfg.AdminPrincipal)
	fmt.Fprintf(&b, "maxfiles = %d\n", cfg.MaxFilesPerOwner)
	fmt.Fprintf(&b, "cooldown = %d\n", cfg.RotationCooldown)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	return os.WriteFile(path, []byte(b.String()), 0600)
}
