package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kirum/internal/config"
)

func newBuffered(t *testing.T, cfg config.LoggingConfig, verbose bool) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := NewWithWriter(cfg, verbose, zapcore.AddSync(&buf))
	require.NoError(t, err)
	return l, &buf
}

func TestLevels(t *testing.T) {
	l, buf := newBuffered(t, config.LoggingConfig{Level: "warn", Format: "json"}, false)
	l.Info("hidden")
	l.Warn("shown")
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}

func TestVerboseForcesDebug(t *testing.T) {
	l, buf := newBuffered(t, config.LoggingConfig{Level: "error"}, true)
	l.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestCategoryFilter(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		Categories: map[string]bool{string(CategoryScript): false},
	}
	l, buf := newBuffered(t, cfg, false)

	l.Named(string(CategoryDerive)).Info("pass done")
	l.Named(string(CategoryScript)).Info("compiled")
	l.Named(string(CategoryDerive)).Named(string(CategoryScript)).Info("nested compiled")
	l.Named(string(CategoryWatch)).With(zap.String("path", "tree")).Info("changed")

	out := buf.String()
	assert.Contains(t, out, "pass done")
	assert.Contains(t, out, "changed")
	assert.NotContains(t, out, "compiled")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestTextFormat(t *testing.T) {
	l, buf := newBuffered(t, config.LoggingConfig{Level: "info", Format: "text"}, false)
	l.Named("project").Info("loaded", zap.Int("files", 3))
	out := buf.String()
	assert.Contains(t, out, "project")
	assert.Contains(t, out, "files")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestInvalidLevel(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Level: "loud"}, false, zapcore.AddSync(&bytes.Buffer{}))
	require.Error(t, err)

	_, err = New(config.LoggingConfig{Level: "loud"}, false)
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "info", Format: "json"}, false)
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
