package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "text", "info")
	require.NoError(t, err)

	l.Info("repository analyzed", "repo", "acme/widget")
	assert.Contains(t, buf.String(), "repository analyzed")
	assert.Contains(t, buf.String(), "acme/widget")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", "warn")
	require.NoError(t, err)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("fallback plan", "scenario", "no-auth")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fallback plan", rec["msg"])
	assert.Equal(t, "no-auth", rec["scenario"])
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		wantLog bool
	}{
		{"info", true, false},
		{"debug", true, true},
		{"DEBUG", true, true},
		{"info", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&buf, "text", tt.level)
			require.NoError(t, err)
			if tt.debug {
				l.Debug("test")
			} else {
				l.Info("test")
			}
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "text", "loud")
	assert.Error(t, err)
}
