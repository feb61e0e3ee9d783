package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nixpig/pman/internal/log"
)

func TestLogger(t *testing.T) {
	t.Run("Test context attributes", func(t *testing.T) {
		var buf bytes.Buffer

		logger := log.New(&buf, slog.LevelInfo)

		ctx := log.ContextAttrs(context.Background(), slog.String("cmd", "bgkill"))
		ctx = log.ContextAttrs(ctx, slog.Int("pid", 42))

		logger.InfoContext(ctx, "signalled job")

		got := buf.String()
		for _, want := range []string{"cmd=bgkill", "pid=42", "msg=\"signalled job\""} {
			if !strings.Contains(got, want) {
				t.Errorf("expected log to contain '%s': got '%s'", want, got)
			}
		}
	})

	t.Run("Test attributes don't leak between contexts", func(t *testing.T) {
		var buf bytes.Buffer

		logger := log.New(&buf, slog.LevelInfo)

		base := log.ContextAttrs(context.Background(), slog.String("a", "1"))
		log.ContextAttrs(base, slog.String("b", "2"))

		logger.InfoContext(base, "message")

		if strings.Contains(buf.String(), "b=2") {
			t.Errorf("expected sibling attributes not to leak: got '%s'", buf.String())
		}
	})

	t.Run("Test debug level", func(t *testing.T) {
		var quiet, verbose bytes.Buffer

		log.New(&quiet, slog.LevelInfo).Debug("hidden")
		log.New(&verbose, slog.LevelDebug).Debug("shown")

		if quiet.Len() != 0 {
			t.Errorf("expected no debug output: got '%s'", quiet.String())
		}

		if !strings.Contains(verbose.String(), "shown") {
			t.Errorf("expected debug output: got '%s'", verbose.String())
		}
	})

	t.Run("Test with attrs keeps context handler", func(t *testing.T) {
		var buf bytes.Buffer

		logger := log.New(&buf, slog.LevelInfo).With("component", "reaper")
		ctx := log.ContextAttrs(context.Background(), slog.Int("pid", 7))

		logger.InfoContext(ctx, "reaped")

		for _, want := range []string{"component=reaper", "pid=7"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected log to contain '%s': got '%s'", want, buf.String())
			}
		}
	})
}
