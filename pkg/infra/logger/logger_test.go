package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncFileWriter_PersistsQueuedLinesOnClose(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	w, err := NewAsyncFileWriter(logPath, FileWriterOptions{FlushInterval: time.Hour})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		n, err := w.Write([]byte("entry\n"))
		require.NoError(t, err)
		assert.Equal(t, 6, n)
	}
	require.NoError(t, w.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(content, []byte("entry\n")))
	assert.Zero(t, w.Dropped())
}

func TestAsyncFileWriter_CloseIsIdempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	w, err := NewAsyncFileWriter(logPath, FileWriterOptions{})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestFileWriterOptions_Defaults(t *testing.T) {
	opts := FileWriterOptions{}.withDefaults()
	assert.Equal(t, 32*1024, opts.BufferSize)
	assert.Equal(t, 1024, opts.QueueSize)
	assert.Equal(t, 2*time.Second, opts.FlushInterval)

	custom := FileWriterOptions{BufferSize: 64, QueueSize: 8, FlushInterval: time.Minute}.withDefaults()
	assert.Equal(t, 64, custom.BufferSize)
	assert.Equal(t, 8, custom.QueueSize)
	assert.Equal(t, time.Minute, custom.FlushInterval)
}

func TestConsoleHook_MirrorsFormattedEntry(t *testing.T) {
	var buf bytes.Buffer
	hook := NewConsoleHook(logrus.InfoLevel)
	hook.out = &buf

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.AddHook(hook)

	l.Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestConsoleHook_LevelsStopAtMinimum(t *testing.T) {
	hook := NewConsoleHook(logrus.WarnLevel)
	levels := hook.Levels()
	assert.Contains(t, levels, logrus.ErrorLevel)
	assert.Contains(t, levels, logrus.WarnLevel)
	assert.NotContains(t, levels, logrus.InfoLevel)
	assert.NotContains(t, levels, logrus.DebugLevel)
}

func TestNewLogger_DisabledDiscardsOutput(t *testing.T) {
	l, err := NewLogger(config.LoggingConfig{Enabled: false, Level: "info"})
	require.NoError(t, err)
	assert.Equal(t, io.Discard, l.Out)
}

func TestNewLogger_FileModeCreatesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "app.log")
	l, err := NewLogger(config.LoggingConfig{
		Enabled:       true,
		Level:         "debug",
		ToFile:        true,
		FilePath:      logPath,
		FlushInterval: 1,
	})
	require.NoError(t, err)

	l.Debug("started")

	w, ok := l.Out.(*AsyncFileWriter)
	require.True(t, ok)
	require.NoError(t, w.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"started"`)
}
