// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the structured, leveled logger used across the module.
// It is a thin layer over go-ethereum's slog based logger so that embedders
// can route protocol logs into the same handler as the rest of their process.
package log

import (
	"io"
	"log/slog"
	"strings"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

type Logger = ethlog.Logger

// Levels, re-exported so callers never import two log packages.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Root returns the root logger.
func Root() Logger { return ethlog.Root() }

// SetDefault replaces the root logger.
func SetDefault(l Logger) { ethlog.SetDefault(l) }

// NewLogger wraps a slog handler.
func NewLogger(h slog.Handler) Logger { return ethlog.NewLogger(h) }

// WithContext returns a child of the root logger carrying the given key/value pairs.
// The root is looked up at call time, so loggers created at package init follow
// a later SetDefault only when they are re-created; packages expose SetLogger for that.
func WithContext(ctx ...any) Logger {
	return ethlog.Root().With(ctx...)
}

// NewTerminalHandler returns a human readable handler that filters below lvl.
func NewTerminalHandler(w io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

// NewJSONHandler returns a handler that writes one json object per record at or above lvl.
func NewJSONHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return ethlog.JSONHandlerWithLevel(w, lvl)
}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// ParseLevel converts a level name (trace, debug, info, warn, error, crit) into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "crit":
		return LevelCrit, nil
	}
	return 0, errors.Errorf("unknown log level %q", s)
}

func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
