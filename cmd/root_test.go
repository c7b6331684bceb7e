package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/mathtutor/internal/config"
)

func TestNewLogger_DefaultKeepsChatQuiet(t *testing.T) {
	l, err := newLogger(config.DefaultConfig().Logging.Level, false)
	require.NoError(t, err)
	defer l.Sync()

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel), "per-turn info lines would interleave with chat")
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_Levels(t *testing.T) {
	l, err := newLogger("info", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = newLogger("error", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel), "verbose overrides the configured level")

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
