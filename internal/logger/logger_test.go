package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// lumberjack's compression goroutine outlives Logger.Close.
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack.v2.(*Logger).millRun"),
	)
}

func TestLogBeforeInitWritesSynchronously(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("no queue yet")
	Warnf("value=%d", 7)

	assert.Contains(t, buf.String(), "no queue yet")
	assert.Contains(t, buf.String(), "value=7")
}

func TestInitWritesToFileAndCloseDrains(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "store.log")

	Init(Options{Debug: false, File: logFile})
	SetOutput(&bytes.Buffer{})

	Info("stored key")
	Errorf("flush failed: %s", "disk full")
	Debug("hidden")
	InfoWithContext(WithRequestID(context.Background(), "req-1"), "with id")
	StructuredInfo(map[string]interface{}{"op": "set"})

	Close()
	Close()
	SetOutput(os.Stdout)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "INFO:  ")
	assert.Contains(t, content, "stored key")
	assert.Contains(t, content, "ERROR: ")
	assert.Contains(t, content, "flush failed: disk full")
	assert.Contains(t, content, "[RequestID: req-1] with id")
	assert.Contains(t, content, `{"op":"set"}`)
	assert.NotContains(t, content, "hidden")
}

func TestDebugMode(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "debug.log")

	Init(Options{Debug: true, File: logFile})
	SetOutput(&bytes.Buffer{})
	assert.True(t, IsDebug())

	Debugf("cache size %d", 3)
	Close()
	SetOutput(os.Stdout)
	SetDebugMode(false)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG: ")
	assert.Contains(t, string(data), "cache size 3")
}
