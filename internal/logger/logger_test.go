package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, levelFor(0))
	assert.Equal(t, logrus.DebugLevel, levelFor(1))
	assert.Equal(t, logrus.TraceLevel, levelFor(2))
	assert.Equal(t, logrus.TraceLevel, levelFor(5))
}

func TestInitWritesPrefixedLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	Init(Options{File: path, Quiet: true})
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	GetLogger("runner").Info("hello from the runner")
	GetLogger("runner").Debug("not at info level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the runner")
	assert.Contains(t, string(data), "runner")
	assert.NotContains(t, string(data), "not at info level")
}
