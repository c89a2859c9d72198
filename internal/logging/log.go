// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

var (
	mu           sync.Mutex
	currentLevel = pterm.LogLevelWarn
)

func init() {
	level := os.Getenv("MARKETPLACE_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if err := Setup(level, os.Stderr); err != nil {
		_ = Setup("warn", os.Stderr)
	}
}

// ParseLevel maps a textual level to a pterm log level.
func ParseLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info", "":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// Setup installs a slog default logger that renders through pterm at the
// given level, writing to w.
func Setup(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	currentLevel = lvl
	logger := pterm.DefaultLogger.WithLevel(lvl).WithWriter(w)
	slog.SetDefault(slog.New(pterm.NewSlogHandler(logger)))
	return nil
}

// Verbose reports whether debug output is enabled.
func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel <= pterm.LogLevelDebug && currentLevel != pterm.LogLevelDisabled
}

func buildArgs(component string, fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2+2)
	args = append(args, "component", component)
	for k, v := range fields {
		if s, ok := v.(string); ok {
			v = Mask(s)
		}
		args = append(args, k, v)
	}
	return args
}

func Debug(component, message string, fields map[string]any) {
	slog.Default().Debug(message, buildArgs(component, fields)...)
}

func Info(component, message string, fields map[string]any) {
	slog.Default().Info(message, buildArgs(component, fields)...)
}

func Warn(component, message string, fields map[string]any) {
	slog.Default().Warn(message, buildArgs(component, fields)...)
}

func Error(component, message string, fields map[string]any) {
	slog.Default().Error(message, buildArgs(component, fields)...)
}
