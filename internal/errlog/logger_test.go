package errlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/resolverlog/internal/eventbus"
	"github.com/hanpama/resolverlog/internal/events"
	"github.com/hanpama/resolverlog/internal/reqid"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	ctx, rid := reqid.NewContext(context.Background())
	l.Log(ctx, Wrap(errors.New("db down"), "Query.user"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, zapcore.ErrorLevel, e.Level)
	require.Equal(t, "Error in resolver Query.user", e.Message)

	fields := e.ContextMap()
	require.Equal(t, "Query.user", fields["graphql.field"])
	require.Equal(t, "db down", fields["error"])
	require.Equal(t, rid, fields[reqid.FieldKey])
}

func TestZapLoggerPlainError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewZapLogger(zap.New(core)).Log(context.Background(), errors.New("plain"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	require.Equal(t, "plain", entries[0].Message)
	fields := entries[0].ContextMap()
	require.NotContains(t, fields, "graphql.field")
	require.NotContains(t, fields, reqid.FieldKey)
}

func TestTee(t *testing.T) {
	var order []string
	l := Tee(
		LoggerFunc(func(_ context.Context, err error) { order = append(order, "a:"+err.Error()) }),
		LoggerFunc(func(_ context.Context, err error) { order = append(order, "b:"+err.Error()) }),
	)
	l.Log(context.Background(), errors.New("x"))
	require.Equal(t, []string{"a:x", "b:x"}, order)
}

func TestEventLogger(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var got []events.ResolverError
	eventbus.On(bus, func(_ context.Context, e events.ResolverError) { got = append(got, e) })

	wrapped := Wrap(errors.New("db down"), "Query.user")
	NewEventLogger().Log(context.Background(), wrapped)
	NewEventLogger().Log(context.Background(), errors.New("plain"))

	require.Len(t, got, 2)
	require.Equal(t, "Query.user", got[0].Hint)
	require.Same(t, wrapped, got[0].Err)
	require.Empty(t, got[1].Hint)
}

func TestErrorFormat(t *testing.T) {
	err := Wrap(pkgerrors.New("db down"), "Query.user")

	require.Equal(t, "Error in resolver Query.user: db down", fmt.Sprintf("%v", err))
	require.Equal(t, `"Error in resolver Query.user: db down"`, fmt.Sprintf("%q", err))

	verbose := fmt.Sprintf("%+v", err)
	require.True(t, strings.HasPrefix(verbose, "db down\n"), verbose)
	require.True(t, strings.HasSuffix(verbose, "\nError in resolver Query.user"), verbose)
	require.Contains(t, verbose, "TestErrorFormat")
}

func TestWrapEmptyHint(t *testing.T) {
	err := Wrap(errors.New("x"), "")
	require.Equal(t, BaseMessage, err.Message())
	require.Equal(t, "Error in resolver: x", err.Error())
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(nil, "Query.user")
	require.Equal(t, "Error in resolver Query.user", err.Error())
	require.Equal(t, "Error in resolver Query.user", fmt.Sprintf("%+v", err))
	require.NoError(t, err.Unwrap())
}
