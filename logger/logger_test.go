package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewForTests()
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		l := FromContext(t.Context())

		require.NotNil(t, l)
		assert.Equal(t, GetDefault(), l)
	})

	t.Run("Should return default logger when wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")

		l := FromContext(ctx)

		require.NotNil(t, l)
		assert.Equal(t, GetDefault(), l)
	})
}

func TestParseLevel(t *testing.T) {
	t.Run("Should map known names and default to info", func(t *testing.T) {
		assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
		assert.Equal(t, WarnLevel, ParseLevel(" warn "))
		assert.Equal(t, ErrorLevel, ParseLevel("error"))
		assert.Equal(t, DisabledLevel, ParseLevel("disabled"))
		assert.Equal(t, InfoLevel, ParseLevel("verbose"))
		assert.Equal(t, InfoLevel, ParseLevel(""))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write JSON records with key values", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})

		l.With("run_id", "abc").Info("record processed", "url", "https://example.com/a")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "record processed", entry["msg"])
		assert.Equal(t, "abc", entry["run_id"])
		assert.Equal(t, "https://example.com/a", entry["url"])
	})

	t.Run("Should drop records below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

		l.Info("hidden")
		l.Warn("shown")

		assert.False(t, strings.Contains(buf.String(), "hidden"))
		assert.True(t, strings.Contains(buf.String(), "shown"))
	})
}
