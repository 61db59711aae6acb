package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashs662/SynchroStore/internal/api"
	"github.com/yashs662/SynchroStore/pkg/persistent"
)

func newTestClient(t *testing.T) (*Client, *persistent.Store) {
	t.Helper()
	store, err := persistent.Open(t.TempDir())
	require.NoError(t, err)

	server := httptest.NewServer(api.NewHandlers(store).Routes())
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func TestNewClientAddress(t *testing.T) {
	c, err := NewClient("127.0.0.1:8001")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8001", c.baseURL)

	c, err = NewClient("https://store.local/")
	require.NoError(t, err)
	assert.Equal(t, "https://store.local", c.baseURL)

	_, err = NewClient("")
	assert.Error(t, err)
}

func TestTypedOperations(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "settings", map[string]any{"lang": "en"}))
	value, ok, err := c.Get(ctx, "settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"lang": "en"}, value)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Incr(ctx, "hits", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	keys, err := c.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hits", "settings"}, keys)

	keys, err = c.Keys(ctx, "set*")
	require.NoError(t, err)
	assert.Equal(t, []string{"settings"}, keys)

	require.NoError(t, c.Delete(ctx, "hits"))
	assert.False(t, store.Has("hits"))

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, store.Len())

	status, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestSendCommand(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"PING", "PONG"},
		{"GET name", "nil"},
		{"SET name bob smith", "OK"},
		{"GET name", "bob smith"},
		{"set count 41", "OK"},
		{"INCR count", "42"},
		{"DECR count 2", "40"},
		{`SET prefs {"a":[1,2]}`, "OK"},
		{"GET prefs", `{"a":[1,2]}`},
		{"INCR name", `ERR value for key "name" is not an integer`},
		{"KEYS", "count, name, prefs"},
		{"KEYS pr*", "prefs"},
		{"DEL name", "OK"},
		{"DEL name", "OK"},
		{"CLEAR", "OK"},
		{"KEYS", ""},
		{"HEALTH", "ok"},
		{"GET", "ERR wrong number of arguments for 'GET' command"},
		{"SET k", "ERR wrong number of arguments for 'SET' command"},
		{"INCR k x", "ERR invalid increment"},
		{"NOPE", "ERR unknown command"},
		{"   ", "ERR empty command"},
	}

	for _, tt := range tests {
		got, err := c.SendCommand(ctx, tt.command)
		require.NoError(t, err, tt.command)
		assert.Equal(t, tt.want, got, tt.command)
	}
}

func TestSendCommandTransportError(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.SendCommand(context.Background(), "PING")
	assert.Error(t, err)
}

func TestBenchmark(t *testing.T) {
	c, _ := newTestClient(t)

	results, successful, total, duration, err := c.Benchmark([]string{"SET bench 1", "GET bench", "INCR counter"}, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, successful)
	assert.Equal(t, 45, total)
	assert.Greater(t, duration.Nanoseconds(), int64(0))
	require.Len(t, results, 3)
	for name, r := range results {
		assert.LessOrEqual(t, r.Min, r.Avg, name)
		assert.LessOrEqual(t, r.Avg, r.Max, name)
		assert.LessOrEqual(t, r.P99, r.Max, name)
	}

	_, _, _, _, err = c.Benchmark([]string{"PING"}, 0, 1)
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	name, args, err := ParseCommand("  set  a  1 ")
	require.NoError(t, err)
	assert.Equal(t, "SET", name)
	assert.Equal(t, []string{"a", "1"}, args)

	assert.Equal(t, 1.0, parseValue([]string{"1"}))
	assert.Equal(t, true, parseValue([]string{"true"}))
	assert.Equal(t, "hello world", parseValue([]string{"hello", "world"}))
	assert.Equal(t, "x", formatValue("x"))
	assert.Equal(t, "null", formatValue(nil))
}

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	resp := registry.Execute("quit", nil, nil)
	assert.Equal(t, EXIT, resp.ControlFlow)

	resp = registry.Execute("help", nil, nil)
	assert.Equal(t, CONTINUE, resp.ControlFlow)
	assert.Contains(t, resp.Response, "INCR <key> [delta]")
	assert.Contains(t, resp.Response, "QUIT")

	resp = registry.Execute("GET", nil, nil)
	assert.Equal(t, NOTFOUND, resp.ControlFlow)
}
