package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "maker.log")

	logger, err := NewLogger(path)
	require.NoError(t, err)
	logger.Sugar().Infow("quote_submitted", "market", "m1")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"quote_submitted"`)
	assert.Contains(t, string(data), `"market":"m1"`)
	assert.Contains(t, string(data), `"ts":`)
}

func TestNewLogger_StdoutOnly(t *testing.T) {
	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
