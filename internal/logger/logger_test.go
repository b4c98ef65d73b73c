package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level.Level())

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ep-register.log")
	log, err := NewLogger(path, "info")
	require.NoError(t, err)

	log.Debugw("hidden")
	log.Infow("Patent built", "ref", "REF-1")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"Patent built"`)
	assert.Contains(t, string(raw), `"ref":"REF-1"`)
	assert.Contains(t, string(raw), `"timestamp"`)
	assert.NotContains(t, string(raw), "hidden")
}

func TestNewLogger_EmptyPathIsNop(t *testing.T) {
	log, err := NewLogger("", "info")
	require.NoError(t, err)
	log.Info("nothing happens")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(filepath.Join(t.TempDir(), "x.log"), "loud")
	assert.Error(t, err)
}
