package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		cfg     Config
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{Config{}, zapcore.InfoLevel, zapcore.DebugLevel},
		{Config{Level: "debug"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{Config{Level: "error", Development: true}, zapcore.ErrorLevel, zapcore.WarnLevel},
	}
	for _, tc := range cases {
		l, err := New(tc.cfg)
		require.NoError(t, err)
		require.True(t, l.Core().Enabled(tc.enabled), "%+v", tc.cfg)
		require.False(t, l.Core().Enabled(tc.muted), "%+v", tc.cfg)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.ErrorContains(t, err, "log level")
}
