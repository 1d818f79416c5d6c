package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New("bridge", &buf)

	logger.Debugf("polling %s", "marker")
	logger.Infof("exchange done in %dms", 42)
	logger.Warnf("selector %q missing", "#x")
	logger.Errorf("boom: %v", assert.AnError)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "[bridge] [DEBUG] polling marker")
	assert.Contains(t, lines[1], "[bridge] [INFO] exchange done in 42ms")
	assert.Contains(t, lines[2], `[bridge] [WARN] selector "#x" missing`)
	assert.Contains(t, lines[3], "[bridge] [ERROR] boom:")
}

func TestLogger_WithSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	root := New("main", &buf)
	child := root.With("server")

	root.Infof("starting")
	child.Infof("listening")

	out := buf.String()
	assert.Contains(t, out, "[main] [INFO] starting")
	assert.Contains(t, out, "[server] [INFO] listening")
	assert.Equal(t, root.ProcessID(), child.ProcessID())
}

func TestLogger_NilIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Infof("ignored")
	})
}

func TestLogger_CloseIsIdempotent(t *testing.T) {
	logger := Discard()
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
	assert.Empty(t, logger.LogPath())
}
