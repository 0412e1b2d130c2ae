package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("report-service", &buf)

	l.LogImport("batch", "orders.csv", "1000 rows")

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "IMPORT", entry.Category)
	assert.Equal(t, "report-service", entry.Service)
	assert.Equal(t, "[batch] orders.csv - 1000 rows", entry.Message)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("svc", &buf)
	l.minLevel = ParseLevel("warn")

	l.Info("API", "dropped")
	l.Error("API", "kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, DEBUG, ParseLevel("debug"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger("importer", dir, "info")
	defer l.Close()

	require.NotNil(t, l.logFile)
	assert.True(t, strings.HasPrefix(l.logFile.Name(), dir))
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNopLogger()
	l.Error("API", "nothing")
	l.Close()
}
