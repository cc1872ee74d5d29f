package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}

	_, err := NewLogger("staging")
	assert.Error(t, err)

	_, err = NewLogger("prod", "loud")
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, SlogLevel(l))

	l, err = NewLogger("dev")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, SlogLevel(l))

	assert.Equal(t, slog.LevelError, SlogLevel(zap.NewNop()))
}
