// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log is a minimal leveled-logging facade modeled on the
// kratos-style Logger/Helper/Filter stack: a Logger only ever receives
// key-value pairs, everything resembling printf convenience lives on
// Helper, and level gating is a decorator (Filter) rather than a Logger
// property.
package log

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the base logging interface: one method, a leveled sequence of
// key-value pairs.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes to an underlying io.Writer via the standard library's
// log package.
type stdLogger struct {
	mu  sync.Mutex
	std *log.Logger
}

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{std: log.New(w, "", log.LstdFlags)}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := make([]interface{}, 0, len(keyvals)+2)
	buf = append(buf, "level", level.String())
	buf = append(buf, keyvals...)

	var sb []byte
	for i := 0; i < len(buf); i += 2 {
		if i > 0 {
			sb = append(sb, ' ')
		}
		sb = append(sb, fmt.Sprintf("%v=%v", buf[i], buf[i+1])...)
	}
	l.std.Print(string(sb))
	return nil
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// FilterLevel sets the minimum level a Filter passes through.
func FilterLevel(level Level) FilterOption {
	return func(f *Filter) { f.level = level }
}

// Filter wraps a Logger, discarding records below a minimum level.
type Filter struct {
	logger Logger
	level  Level
}

// NewFilter wraps logger, applying opts.
func NewFilter(logger Logger, opts ...FilterOption) *Filter {
	f := &Filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds printf-style convenience methods over a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with printf-style convenience methods.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) Debugf(format string, args ...interface{}) {
	h.logger.Log(LevelDebug, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Infof(format string, args ...interface{}) {
	h.logger.Log(LevelInfo, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Warnf(format string, args ...interface{}) {
	h.logger.Log(LevelWarn, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Errorf(format string, args ...interface{}) {
	h.logger.Log(LevelError, "msg", fmt.Sprintf(format, args...))
}
