// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel is the level of loggers created without WithLogLevel.
// It may be changed at runtime, e.g. from a command-line flag.
var DefaultLogLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

type LoggerOptions struct {
	level      *zap.AtomicLevel
	writer     io.Writer
	name       string
	zapOptions []zap.Option
}

type LoggerOption func(*LoggerOptions)

func (o *LoggerOptions) apply(opts ...LoggerOption) {
	for _, op := range opts {
		op(o)
	}
}

func WithLogLevel(l zapcore.Level) LoggerOption {
	return func(o *LoggerOptions) {
		level := zap.NewAtomicLevelAt(l)
		o.level = &level
	}
}

func WithWriter(w io.Writer) LoggerOption {
	return func(o *LoggerOptions) {
		o.writer = w
	}
}

func WithName(name string) LoggerOption {
	return func(o *LoggerOptions) {
		o.name = name
	}
}

func WithZapOptions(opts ...zap.Option) LoggerOption {
	return func(o *LoggerOptions) {
		o.zapOptions = append(o.zapOptions, opts...)
	}
}

// New creates a console logger writing to stderr, or to the writer given
// with WithWriter.
func New(opts ...LoggerOption) *zap.SugaredLogger {
	options := &LoggerOptions{
		level:  &DefaultLogLevel,
		writer: os.Stderr,
	}
	options.apply(opts...)

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:       "M",
		LevelKey:         "L",
		TimeKey:          "T",
		NameKey:          "N",
		CallerKey:        "C",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		ConsoleSeparator: " ",
	}

	ws := zapcore.Lock(zapcore.AddSync(options.writer))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), ws, options.level)
	lg := zap.New(core, options.zapOptions...).Sugar()
	if options.name != "" {
		lg = lg.Named(options.name)
	}
	return lg
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (zapcore.Level, error) {
	return zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}
