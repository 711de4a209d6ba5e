// Copyright (c) 2026 The FileReg developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrMissingAdmin indicates no administrator principal is configured.
	ErrMissingAdmin = errors.New("config: administrator principal must be set")

	// ErrInvalidAdmin indicates the administrator principal is not a
	// 40-character non-zero hex string.
	ErrInvalidAdmin = errors.New("config: invalid administrator principal")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidQuota indicates the per-owner file ceiling is malformed.
	ErrInvalidQuota = errors.New("config: invalid file quota")

	// ErrInvalidCooldown indicates the rotation cool-down is malformed.
	ErrInvalidCooldown = errors.New("config: invalid rotation cool-down")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
