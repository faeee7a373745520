// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package elog is the logging seam the core layers that log (container,
// cast, vm) take a dependency on instead of calling log/stderr directly. It is a
// thin shim over github.com/go-kratos/kratos/v2/log so callers keep the
// Helper-based call shape (Errorf/Warnf/Debugf) without pulling the rest of
// the kratos framework into import graphs that never use a kratos app.
package elog

import (
	"os"

	kratoslog "github.com/go-kratos/kratos/v2/log"
)

// Helper is the logging handle packages log through; their constructors
// accept a Logger and wrap it with From.
type Helper = kratoslog.Helper

// Logger is the underlying sink interface package constructors accept,
// exposed so callers can supply their own (e.g. the CLI's level-filtered
// stderr logger for `--log-level`).
type Logger = kratoslog.Logger

// Default returns a Helper writing to stderr, filtered at error level. It is
// what every New-style constructor in this module falls back to when the
// caller passes a nil logger.
func Default() *Helper {
	return NewAt(kratoslog.LevelError)
}

// NewAt returns a Helper writing to stderr filtered at the given level.
func NewAt(level kratoslog.Level) *Helper {
	base := kratoslog.NewStdLogger(os.Stderr)
	return kratoslog.NewHelper(kratoslog.NewFilter(base, kratoslog.FilterLevel(level)))
}

// From wraps an arbitrary Logger in a Helper, or falls back to Default if
// logger is nil.
func From(logger Logger) *Helper {
	if logger == nil {
		return Default()
	}
	return kratoslog.NewHelper(logger)
}
