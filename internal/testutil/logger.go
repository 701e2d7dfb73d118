// Package testutil holds logging helpers shared by tests.
package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes through t.Log, so
// output only shows for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// LogRecorder keeps every line a logger wrote so tests can assert on
// attributes such as tx_id.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
	t   testing.TB
}

// NewLogRecorder returns a recorder and a logger writing to it. Lines are
// mirrored to t.Log.
func NewLogRecorder(t testing.TB) (*LogRecorder, *slog.Logger) {
	t.Helper()
	r := &LogRecorder{t: t}
	return r, slog.New(slog.NewTextHandler(r, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.Log(strings.TrimRight(string(p), "\n"))
	return r.buf.Write(p)
}

// Lines returns the recorded lines containing every given substring.
func (r *LogRecorder) Lines(substrs ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, line := range strings.Split(strings.TrimSpace(r.buf.String()), "\n") {
		if line == "" {
			continue
		}
		match := true
		for _, s := range substrs {
			if !strings.Contains(line, s) {
				match = false
				break
			}
		}
		if match {
			out = append(out, line)
		}
	}
	return out
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
