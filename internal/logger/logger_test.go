package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesDailyJSONFile(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(Options{Dir: dir, Level: "debug"})
	require.NoError(t, err)

	log.Named("tenant.cache").Debug("tenant.cache.hit", zap.String("identifier", "acme"))
	require.NoError(t, log.Sync())
	assert.Same(t, log, zap.L())

	b, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2) // "logger online" + our event

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "debug", ev["level"])
	assert.Equal(t, "tenant.cache", ev["logger"])
	assert.Equal(t, "tenant.cache.hit", ev["msg"])
	assert.Equal(t, "acme", ev["identifier"])
}

func TestNewLevelFilters(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	dir := t.TempDir()
	log, err := New(Options{Dir: dir, Level: "warn"})
	require.NoError(t, err)
	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "dropped")
	assert.Contains(t, string(b), "kept")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir(), Level: "chatty"})
	assert.Error(t, err)
}
