// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdLoggerFormatsKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf)
	if err := l.Log(LevelInfo, "msg", "hello", "n", 3); err != nil {
		t.Fatalf("Log: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=INFO") {
		t.Fatalf("output %q missing level=INFO", out)
	}
	if !strings.Contains(out, "msg=hello") {
		t.Fatalf("output %q missing msg=hello", out)
	}
	if !strings.Contains(out, "n=3") {
		t.Fatalf("output %q missing n=3", out)
	}
}

func TestStdLoggerNoKeyvalsIsNoop(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf)
	if err := l.Log(LevelInfo); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestFilterGatesByLevel(t *testing.T) {
	var buf bytes.Buffer
	base := NewStdLogger(&buf)
	f := NewFilter(base, FilterLevel(LevelWarn))

	f.Log(LevelDebug, "msg", "should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("debug record should have been filtered, got %q", buf.String())
	}

	f.Log(LevelError, "msg", "should pass")
	if !strings.Contains(buf.String(), "should pass") {
		t.Fatalf("error record should have passed through, got %q", buf.String())
	}
}

func TestFilterDefaultLevelIsDebug(t *testing.T) {
	var buf bytes.Buffer
	f := NewFilter(NewStdLogger(&buf))
	f.Log(LevelDebug, "msg", "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("default filter level should pass debug records, got %q", buf.String())
	}
}

func TestHelperConvenienceMethods(t *testing.T) {
	var buf bytes.Buffer
	h := NewHelper(NewStdLogger(&buf))
	h.Warnf("count is %d", 7)
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "count is 7") {
		t.Fatalf("unexpected Warnf output: %q", out)
	}
}

func TestLevelString(t *testing.T) {
	tests := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q; want %q", level, got, want)
		}
	}
}
