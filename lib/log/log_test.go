package log_test

import (
	"context"
	"sync"
	"testing"

	"cdr.dev/slog"
	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/hiergram/lib/log"
)

type captureSink struct {
	mu      sync.Mutex
	entries []slog.SinkEntry
}

func (s *captureSink) LogEntry(_ context.Context, e slog.SinkEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *captureSink) Sync() {}

func TestFields(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	ctx := log.With(context.Background(), slog.Make(sink))

	log.Debug(ctx, "dropped below info")
	log.Warn(ctx, "children cycle", slog.F("id", "a"), slog.F("child", "b"))

	ctx = log.Leveled(ctx, slog.LevelDebug)
	log.Debug(ctx, "missing child", slog.F("id", "a"))

	assert.Len(t, sink.entries, 2)
	assert.Equal(t, "children cycle", sink.entries[0].Message)
	assert.Equal(t, slog.LevelWarn, sink.entries[0].Level)
	assert.Equal(t, slog.Map{slog.F("id", "a"), slog.F("child", "b")}, sink.entries[0].Fields)
	assert.Equal(t, "missing child", sink.entries[1].Message)
	assert.Equal(t, slog.Map{slog.F("id", "a")}, sink.entries[1].Fields)
}

func TestWithDefault(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	ctx := log.With(context.Background(), slog.Make(sink))
	ctx = log.WithDefault(ctx)
	log.Warn(ctx, "kept")
	assert.Len(t, sink.entries, 1)
}
