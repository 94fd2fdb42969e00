// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the process logger and utilities for secure logging
// and error presentation.
//
// Diagnostic logs are structured zap records written to stderr so they never
// mix with command output. Messages that reach the user go through Mask first,
// so tokens and passwords are not echoed back to the terminal.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// VerboseEnv enables debug logging regardless of the configured level.
const VerboseEnv = "GPAI_VERBOSE"

// New builds the process logger. verbose (or GPAI_VERBOSE=1) forces debug level.
func New(level string, verbose bool) (*zap.Logger, error) {
	lvl := ParseLevel(level)
	if verbose || os.Getenv(VerboseEnv) == "1" {
		lvl = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		DisableStacktrace: true,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid": os.Getpid(),
		},
	}
	return cfg.Build()
}

// ParseLevel maps a level name to a zap level. Unknown names yield warn,
// the CLI default.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "dbg":
		return zapcore.DebugLevel
	case "info", "information":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "err":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
