// internal/logging/logging_test.go
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingFile_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.log")

	rf, err := NewRotatingFile(path, WithMaxSize(100), WithMaxBackups(2))
	require.NoError(t, err)
	defer rf.Close()

	data := []byte("hello world\n")
	n, err := rf.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestRotatingFile_Rotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rf, err := NewRotatingFile(path, WithMaxSize(50), WithMaxBackups(2))
	require.NoError(t, err)
	defer rf.Close()

	first := []byte(strings.Repeat("a", 30))
	second := []byte(strings.Repeat("b", 30))
	third := []byte(strings.Repeat("c", 30))
	fourth := []byte(strings.Repeat("d", 30))

	for _, chunk := range [][]byte{first, second, third, fourth} {
		_, err := rf.Write(chunk)
		require.NoError(t, err)
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fourth, content)

	backup1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, third, backup1)

	backup2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, second, backup2)

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "only two backups are kept")
}

func TestRotatingFile_OversizedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rf, err := NewRotatingFile(path, WithMaxSize(10))
	require.NoError(t, err)
	defer rf.Close()

	big := []byte(strings.Repeat("x", 25))
	_, err = rf.Write(big)
	require.NoError(t, err)

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err), "an empty file should not be rotated")
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := NewRotatingFile(filepath.Join(t.TempDir(), "test.log"))
	require.NoError(t, err)
	require.NoError(t, rf.Close())
	require.NoError(t, rf.Close())

	_, err = rf.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	closer, err := Setup(Options{Level: "warn", DataDir: dir})
	require.NoError(t, err)

	slog.Info("hidden")
	slog.Warn("shown", "provider", "openai")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "msg=shown provider=openai")

	path := filepath.Join(dir, "debug.log")
	closer, err = Setup(Options{Level: "error", File: path, Debug: true})
	require.NoError(t, err)
	slog.Debug("details")
	require.NoError(t, closer.Close())

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "msg=details")
}
