package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat(&buf, FormatJSON, slog.LevelInfo)

	logger.Info("failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), `"err":"boom"`)
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestNewWithFormat_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat(&buf, FormatText, slog.LevelInfo)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
