package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelToCharmlogLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  charmlog.Level
	}{
		{DebugLevel, charmlog.DebugLevel},
		{InfoLevel, charmlog.InfoLevel},
		{WarnLevel, charmlog.WarnLevel},
		{ErrorLevel, charmlog.ErrorLevel},
		{"DEBUG", charmlog.DebugLevel},
		{"", charmlog.InfoLevel},
		{"verbose", charmlog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.ToCharmlogLevel(), string(tt.level))
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: DebugLevel, Output: &buf, JSON: true})

	l.Debug("transformed", KeyID, "doc.md", KeyFrame, "vue")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transformed", entry["msg"])
	assert.Equal(t, "doc.md", entry[KeyID])
	assert.Equal(t, "vue", entry[KeyFrame])
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: WarnLevel, Output: &buf})

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error("dropped")
	})
}
