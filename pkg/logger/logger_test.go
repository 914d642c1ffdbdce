package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSONWithQueryID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")

	ctx := WithQueryID(context.Background(), "q-42")
	FromContext(ctx).Debug("resolved", "results", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "resolved", line["msg"])
	assert.Equal(t, "q-42", line["query_id"])
	assert.EqualValues(t, 3, line["results"])
}

func TestSetupWriter_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")

	WithComponent("indexer").Info("hidden")
	assert.Empty(t, buf.String())

	WithComponent("indexer").Warn("shown")
	assert.Contains(t, buf.String(), "component=indexer")
}
