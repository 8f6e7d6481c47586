package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("Error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestStdLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelWarn)
	ctx := context.Background()

	l.Debug(ctx, "dropped")
	l.Info(ctx, "dropped too")
	l.Warn(ctx, "kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN] kept")
}

func TestStdLogger_FieldsSortedAndErrorRendered(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelDebug)

	l.Error(context.Background(), errors.New("boom"), "order failed", map[string]interface{}{
		"ticket": 7,
		"symbol": "BTCUSDm",
	})

	out := buf.String()
	assert.Contains(t, out, "[ERROR] order failed | error: boom")
	// Keys render in sorted order regardless of map iteration.
	assert.Contains(t, out, "symbol=BTCUSDm ticket=7")
}
