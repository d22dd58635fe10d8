package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareNone(t *testing.T) {
	conf := LoggingConfig{Level: "none"}
	log, err := conf.Prepare()
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestPrepareFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "edigen.log")
	conf := LoggingConfig{Level: "none", File: path, FileLevel: "debug", FileMode: "overwrite"}

	log, err := conf.Prepare()
	require.NoError(t, err)
	log.Info("composed invoice")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "composed invoice")
}

func TestPrepareRejectsUnknownLevel(t *testing.T) {
	conf := LoggingConfig{Level: "chatty"}
	_, err := conf.Prepare()
	assert.Error(t, err)
	assert.Error(t, conf.validate())
}
