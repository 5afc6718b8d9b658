package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWriter(&buf, "json", slog.LevelDebug)
	require.NoError(t, err)

	l.LogSave(context.Background(), "Items", 3, 2048, nil)
	assert.Contains(t, buf.String(), `"table":"Items"`)
	assert.Contains(t, buf.String(), `"size":"2.0 kB"`)

	_, err = NewWriter(&buf, "xml", slog.LevelInfo)
	require.Error(t, err)
}

func TestLogRejectedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWriter(&buf, "text", slog.LevelWarn)
	require.NoError(t, err)

	l.LogLoad(context.Background(), "Items", 1, nil)
	assert.Empty(t, buf.String())

	l.LogRejected(context.Background(), "CreateTable", "bad name", errors.New("invalid identifier"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "op=CreateTable")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
