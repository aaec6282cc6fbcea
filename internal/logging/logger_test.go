package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("test", &buf, WARN)

	logger.Info("не должно попасть")
	logger.Warn("chunk %d", 7)
	logger.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [test] chunk 7")
	assert.Contains(t, out, "[ERROR] [test] boom")
}

func TestDefaultLoggerSwap(t *testing.T) {
	prev := defaultLogger
	defer func() { defaultLogger = prev }()

	var buf bytes.Buffer
	SetDefaultLogger(NewConsoleLogger("world", &buf, TRACE))
	Debug("queue drained: %d", 3)
	LogChunkMeshed(1, -2, 3, 42)

	assert.Contains(t, buf.String(), "[DEBUG] [world] queue drained: 3")
	assert.Contains(t, buf.String(), "Chunk (1,-2,3) meshed: 42 quads")

	SetDefaultLevel(ERROR)
	buf.Reset()
	Info("скрыто")
	assert.Empty(t, buf.String())
}

func TestNewLoggerWritesFile(t *testing.T) {
	prevDir := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = prevDir }()

	logger, err := NewLogger("render")
	require.NoError(t, err)
	logger.SetLevels(ERROR, TRACE)
	logger.Trace("vertex buffer %d bytes", 44)
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(LogDir, "render_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "vertex buffer 44 bytes")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestManagerReusesLoggers(t *testing.T) {
	prevDir := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = prevDir }()

	lm := NewLoggerManager()
	a, err := lm.GetLogger(ComponentAPI)
	require.NoError(t, err)
	b, err := lm.GetLogger(ComponentAPI)
	require.NoError(t, err)
	assert.Same(t, a, b)

	w := lm.MustGetLogger(ComponentWorld)
	assert.Equal(t, []string{"api", "world"}, lm.ListComponents())

	lm.SetConsoleLevel(WARN)
	assert.Equal(t, WARN, a.minConsoleLevel)
	assert.Equal(t, WARN, w.minConsoleLevel)
	assert.Equal(t, TRACE, w.minFileLevel)

	c, err := lm.GetLogger(ComponentEvents)
	require.NoError(t, err)
	assert.Equal(t, WARN, c.minConsoleLevel)

	require.NoError(t, lm.SetLogLevel("api", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", DEBUG, DEBUG))
	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
