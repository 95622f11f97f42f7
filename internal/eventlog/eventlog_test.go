package eventlog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	chunks []string
}

func (r *recordingSink) Write(_ context.Context, _ Severity, chunk string) error {
	r.chunks = append(r.chunks, chunk)
	return nil
}

func TestChunkShortEntryIsSingleChunk(t *testing.T) {
	chunks := Chunk("short message")
	require.Equal(t, []string{"short message"}, chunks)
}

func TestChunkLongEntrySplitsAndReassembles(t *testing.T) {
	body := strings.Repeat("x", 62500)
	chunks := Chunk(body)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], MaxChunkLen)
	require.Len(t, chunks[1], MaxChunkLen)
	require.Len(t, chunks[2], 500)

	require.Equal(t, body, strings.Join(chunks, ""))
}

func TestChunkCountIsCeilDivision(t *testing.T) {
	body := strings.Repeat("y", MaxChunkLen*4+1)
	chunks := Chunk(body)
	require.Len(t, chunks, 5)
	require.Equal(t, body, strings.Join(chunks, ""))
}

func TestLoggerGatesTraceOnFlag(t *testing.T) {
	sink := &recordingSink{}
	l := New(sink, false)
	require.NoError(t, l.Trace(context.Background(), "noisy"))
	require.Empty(t, sink.chunks)

	require.NoError(t, l.Error(context.Background(), "always logged"))
	require.Equal(t, []string{"always logged"}, sink.chunks)
}

func TestLoggerTraceEnabled(t *testing.T) {
	sink := &recordingSink{}
	l := New(sink, true)
	require.NoError(t, l.Trace(context.Background(), "visible"))
	require.Equal(t, []string{"visible"}, sink.chunks)
}
