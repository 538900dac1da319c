// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package svcrtlog is the thin structured-logging seam shared by every
// package in this module. Callers depend on the Logger interface, not on
// zap directly, so tests can swap in Discard without pulling in a sink.
package svcrtlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is an alias of zap's structured field so callers never need to
// import zap themselves.
type Field = zap.Field

// Re-exported field constructors, covering what this module actually emits.
var (
	String = zap.String
	Int    = zap.Int
	Int64  = zap.Int64
	Error  = zap.Error
	Any    = zap.Any
	Bool   = zap.Bool
)

// Logger is the minimal leveled, structured logging surface this module
// depends on. *zap.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// zapLogger adapts *zap.Logger to Logger, narrowing With's return type.
type zapLogger struct {
	z *zap.Logger
}

func (l zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l zapLogger) With(fields ...Field) Logger       { return zapLogger{z: l.z.With(fields...)} }

// Wrap adapts an existing *zap.Logger.
func Wrap(z *zap.Logger) Logger {
	if z == nil {
		return Discard()
	}

	return zapLogger{z: z}
}

// New builds a production-profile logger at the given level, writing
// JSON-encoded output to stderr. Bundles embedding this runtime in a CLI or daemon
// typically call this once and pass the result to every constructor that
// accepts a Logger.
func New(level zapcore.Level) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return Wrap(z), nil
}

type discard struct{}

func (discard) Debug(string, ...Field) {}
func (discard) Info(string, ...Field)  {}
func (discard) Warn(string, ...Field)  {}
func (discard) Error(string, ...Field) {}
func (d discard) With(...Field) Logger { return d }

// Discard returns a Logger that drops everything, used as a default so
// constructors never need a nil check before logging.
func Discard() Logger { return discard{} }
