package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/resolverlog/internal/config"
	"github.com/hanpama/resolverlog/internal/directory"
	"github.com/hanpama/resolverlog/internal/eventbus"
	"github.com/hanpama/resolverlog/internal/events"
)

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help", "serve"}, &out, &out))
	require.Contains(t, out.String(), "serve FLAGS")

	out.Reset()
	require.NoError(t, run([]string{"help"}, &out, &out))
	require.Contains(t, out.String(), "check-sdl")

	require.Error(t, run([]string{"help", "nope"}, &out, &out))
}

func TestUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	require.EqualError(t, run([]string{"compile"}, &stderr, &stderr), `unknown command "compile"`)
	require.Contains(t, stderr.String(), "USAGE")

	require.EqualError(t, run(nil, &stderr, &stderr), "missing command")
}

func TestCheckSDL(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"check-sdl"}, &out, &out))
	require.Contains(t, out.String(), "user(id: ID!): User @async")
	require.Contains(t, out.String(), "union SearchResult = User | Post")

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.graphql")
	require.NoError(t, os.WriteFile(bad, []byte("type Query { user: Missing }"), 0o644))
	err := run([]string{"check-sdl", "-graphql.schema", bad}, &out, &out)
	require.ErrorContains(t, err, "build schema")

	outFile := filepath.Join(dir, "out.graphql")
	require.NoError(t, run([]string{"check-sdl", "-out", outFile}, &out, &out))
	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Contains(t, string(b), "type Query {")
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Cleanup(func() { eventbus.Use(nil) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stderr bytes.Buffer
	require.NoError(t, cmdServe(ctx, []string{"-server.addr", "127.0.0.1:0", "-log.level", "error"}, &stderr))
}

func TestServeRejectsBadFlags(t *testing.T) {
	var stderr bytes.Buffer
	err := cmdServe(context.Background(), []string{"-log.level", "loud"}, &stderr)
	require.ErrorContains(t, err, "log.level")
	require.Contains(t, stderr.String(), "serve FLAGS")
}

func TestHandlerLogsResolverErrorsOnce(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })
	var published []events.ResolverError
	eventbus.On(bus, func(_ context.Context, e events.ResolverError) { published = append(published, e) })

	core, logs := observer.New(zapcore.ErrorLevel)
	cfg := config.Default()
	cfg.Server.MetadataHeaders = []string{directory.UserIDHeader}
	h, err := newHandler(cfg, zap.New(core))
	require.NoError(t, err)

	body := `{"query":"{ me { name } missing: user(id: \"9\") { name } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(directory.UserIDHeader, "1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	want := map[string]any{
		"data":   map[string]any{"me": map[string]any{"name": "Ada"}, "missing": nil},
		"errors": []any{map[string]any{"message": `user "9": not found`, "path": []any{"missing"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	require.Equal(t, "Error in resolver Query.user", entries[0].Message)
	require.Equal(t, w.Header().Get("graphql-request-id"), jsonNumber(entries[0].ContextMap()["graphql.request_id"]))

	require.Len(t, published, 1)
	require.Equal(t, "Query.user", published[0].Hint)
}

func TestHandlerWithoutErrorLogging(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	cfg := config.Default()
	cfg.GraphQL.ErrorLogging = false
	h, err := newHandler(cfg, zap.New(core))
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{"query":"{ user(id: \"9\") { name } }"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Zero(t, logs.Len())
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHandlerIntrospection(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h, err := newHandler(config.Default(), zap.New(core))
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{"query":"{ __type(name: \"SearchResult\") { kind possibleTypes { name } } }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	want := `{"data":{"__type":{"kind":"UNION","possibleTypes":[{"name":"User"},{"name":"Post"}]}}}` + "\n"
	require.Equal(t, want, w.Body.String())
	require.Zero(t, logs.Len())

	cfg := config.Default()
	cfg.GraphQL.Introspection = false
	h, err = newHandler(cfg, zap.New(core))
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/graphql", strings.NewReader(`{"query":"{ __schema { description } }"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), "Cannot query field '__schema'")
}
