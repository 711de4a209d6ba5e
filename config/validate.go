// Copyright (c) 2026 The FileReg developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// principalHexLen is the hex length of a 20-byte principal identity.
const principalHexLen = 40

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within
// acceptable ranges and returns the first error encountered, or nil.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.AdminPrincipal == "" {
		return ErrMissingAdmin
	}
	if err := validatePrincipalHex(cfg.AdminPrincipal); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAdmin, err)
	}

	if cfg.MaxFilesPerOwner == 0 {
		return fmt.Errorf("%w: must be at least 1", ErrInvalidQuota)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validatePrincipalHex checks that s decodes to a non-zero 20-byte value.
func validatePrincipalHex(s string) error {
	if len(s) != principalHexLen {
		return fmt.Errorf("must be %d hex characters, got %d", principalHexLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	zero := true
	for _, c := range b {
		if c != 0 {
			zero = false
			break
		}
	}
	if zero {
		return fmt.Errorf("must not be the null identity")
	}
	return nil
}
