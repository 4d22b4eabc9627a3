package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test-svc", Output: &buf})

	ctx := logg.WithFields(context.Background(), map[string]any{"merchant_id": "m-1"})
	logg.Info(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-svc", entry["service"])
	assert.Equal(t, "m-1", entry["merchant_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestLoggerContextFieldsDoNotLeakAcrossContexts(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test-svc", Output: &buf})

	scoped := logg.WithField(context.Background(), "job_id", "j-1")
	_ = scoped

	logg.Info(context.Background(), "plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["job_id"]
	assert.False(t, ok, "field from scoped context must not appear")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
