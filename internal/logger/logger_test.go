package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestNewTee_DuplicatesToSink ensures entries logged through a tee logger
// reach the extra sink in plain format.
func TestNewTee_DuplicatesToSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := NewTee(zapcore.InfoLevel, zapcore.AddSync(&buf))
	l.Infof("building release %s", "2020.1+mwu1")

	// Sync errors are ignored: fsync on a console stdout is not supported
	// everywhere.
	_ = l.Sync()

	out := buf.String()
	require.Contains(t, out, "building release 2020.1+mwu1")
	require.Contains(t, out, "INFO")

	// Plain encoder on the file branch: no ANSI escapes.
	require.NotContains(t, out, "\x1b[")
}

// TestContextCarriesLogger verifies ToContext/FromContext round-trips and
// the global fallback.
func TestContextCarriesLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Same(t, global, FromContext(ctx))

	named := New(zapcore.InfoLevel).Named("test")
	ctx = ToContext(ctx, named)
	require.Same(t, named, FromContext(ctx))
}
