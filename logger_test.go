package numtree_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/numtree"
	"github.com/hupe1980/numtree/rangetree"
)

func bufferLogger(level slog.Level) (*numtree.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return numtree.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Operations(t *testing.T) {
	ctx := context.Background()
	logger, buf := bufferLogger(slog.LevelDebug)

	logger.LogAdd(ctx, "price", 1, 2.5, nil)
	logger.LogAdd(ctx, "price", 2, math.Inf(1), errors.New("boom"))
	logger.LogBatchAdd(ctx, "price", 10, 3)
	logger.LogQuery(ctx, "price", 4, true, nil)
	logger.LogGC(ctx, numtree.GCStats{Fields: 2, EntriesRemoved: 7}, nil)
	logger.LogGCBudget(ctx, "price", "visits", 5, time.Millisecond)

	lines := logLines(t, buf)
	require.Len(t, lines, 6)

	assert.Equal(t, "add completed", lines[0]["msg"])
	assert.Equal(t, "DEBUG", lines[0]["level"])

	assert.Equal(t, "add failed", lines[1]["msg"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])

	assert.Equal(t, "WARN", lines[2]["level"])
	assert.EqualValues(t, 7, lines[2]["success"])

	assert.Equal(t, "query returned partial results", lines[3]["msg"])

	assert.Equal(t, "gc completed", lines[4]["msg"])
	assert.EqualValues(t, 7, lines[4]["entries_removed"])

	assert.Equal(t, "gc scan budget exhausted", lines[5]["msg"])
	assert.Equal(t, "visits", lines[5]["reason"])
	assert.EqualValues(t, 5, lines[5]["visits"])
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)

	logger.WithField("price").WithTreeID(rangetree.TreeID(42)).Info("hello")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "price", lines[0]["field"])
	assert.EqualValues(t, 42, lines[0]["tree_id"])
}

func TestLogger_IndexIntegration(t *testing.T) {
	ctx := context.Background()
	logger, buf := bufferLogger(slog.LevelWarn)
	ix := newIndex(t, numtree.WithLogger(logger))

	require.NoError(t, ix.Add(ctx, "a", 1, 1))
	assert.Empty(t, buf.String(), "debug output is filtered at warn level")

	require.Error(t, ix.Add(ctx, "a", 2, math.NaN()))
	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "add failed", lines[0]["msg"])
	assert.Equal(t, "a", lines[0]["field"])
}

func TestNoopLogger(t *testing.T) {
	logger := numtree.NoopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.LogAdd(context.Background(), "a", 1, 1, errors.New("ignored"))
}
