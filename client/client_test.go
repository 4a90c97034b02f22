package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/pageql/cache"
	"github.com/c360/pageql/toast"
)

// newGraphQLServer returns a test server answering every POST with the given
// body, counting requests.
func newGraphQLServer(t *testing.T, body string, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) Config {
	return Config{Endpoint: endpoint, TimeoutStr: "5s"}
}

func TestQueryCacheFirst(t *testing.T) {
	var requests atomic.Int64
	srv := newGraphQLServer(t,
		`{"data":{"item":{"__typename":"Item","id":"1","title":"hello"}}}`, &requests)

	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	op := MustOperation(testQuery).WithVariables(map[string]any{"id": "1"})

	first, err := c.Query(context.Background(), op)
	require.NoError(t, err)
	assert.True(t, first.HasData())
	assert.Equal(t, int64(1), requests.Load())

	// Second execution is served from the cache
	second, err := c.Query(context.Background(), op)
	require.NoError(t, err)
	assert.JSONEq(t, string(first.Data), string(second.Data))
	assert.Equal(t, int64(1), requests.Load())
}

func TestQueryErrorsNotCached(t *testing.T) {
	var requests atomic.Int64
	srv := newGraphQLServer(t,
		`{"data":null,"errors":[{"message":"not found"}]}`, &requests)

	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	op := MustOperation(testQuery).WithVariables(map[string]any{"id": "404"})

	resp, err := c.Query(context.Background(), op)
	require.NoError(t, err)
	assert.True(t, resp.HasErrors())

	_, err = c.Query(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests.Load())
}

func TestQueryRejectsNonQuery(t *testing.T) {
	srv := newGraphQLServer(t, `{"data":{}}`, nil)
	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), MustOperation(testMutation))
	assert.Error(t, err)
	_, err = c.Query(context.Background(), nil)
	assert.Error(t, err)
}

func TestMutateBypassesCache(t *testing.T) {
	var requests atomic.Int64
	srv := newGraphQLServer(t,
		`{"data":{"vote":{"__typename":"Item","id":"1","votes":2}}}`, &requests)

	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	op := MustOperation(testMutation).WithVariables(map[string]any{"id": "1"})

	_, err = c.Mutate(context.Background(), op)
	require.NoError(t, err)
	_, err = c.Mutate(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests.Load())
}

func TestMutateRejectsNonMutation(t *testing.T) {
	srv := newGraphQLServer(t, `{"data":{}}`, nil)
	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	_, err = c.Mutate(context.Background(), MustOperation(testQuery))
	assert.Error(t, err)
}

func TestMutationErrorToastsThroughClient(t *testing.T) {
	srv := newGraphQLServer(t,
		`{"data":null,"errors":[{"message":"vote rejected"}]}`, nil)

	collector := toast.NewCollector()
	c, err := New(testConfig(srv.URL), nil, nil, WithNotifier(collector))
	require.NoError(t, err)

	op := MustOperation(testMutation).WithVariables(map[string]any{"id": "1"})
	resp, err := c.Mutate(context.Background(), op)
	require.NoError(t, err)
	assert.True(t, resp.HasErrors())

	toasts := collector.Flush()
	require.Len(t, toasts, 1)
	assert.Equal(t, "vote rejected", toasts[0].Message)
}

func TestExtractRestoreAcrossClients(t *testing.T) {
	var requests atomic.Int64
	srv := newGraphQLServer(t,
		`{"data":{"item":{"__typename":"Item","id":"1","title":"hello"}}}`, &requests)

	server, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	op := MustOperation(testQuery).WithVariables(map[string]any{"id": "1"})
	first, err := server.Query(context.Background(), op)
	require.NoError(t, err)

	// Snapshot crosses the render/hydration boundary as plain JSON
	encoded, err := json.Marshal(server.Extract())
	require.NoError(t, err)
	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal(encoded, &snap))

	hydrated, err := New(testConfig(srv.URL), snap, nil)
	require.NoError(t, err)

	resp, err := hydrated.Query(context.Background(), op)
	require.NoError(t, err)
	assert.JSONEq(t, string(first.Data), string(resp.Data))

	// No additional network call after hydration
	assert.Equal(t, int64(1), requests.Load())
}

func TestCookieHeaderForwarding(t *testing.T) {
	var gotCookie, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("X-Inbound-Auth")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"viewer":{"name":"ada"}}}`))
	}))
	t.Cleanup(srv.Close)

	inbound := http.Header{}
	inbound.Set("Cookie", "session=abc123")
	inbound.Set("X-Inbound-Auth", "should-be-dropped")

	c, err := New(testConfig(srv.URL), nil, inbound)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), MustOperation(`{ viewer { name } }`))
	require.NoError(t, err)

	// Only the cookie survives the proxy hop
	assert.Equal(t, "session=abc123", gotCookie)
	assert.Empty(t, gotAuth)
}

func TestTransportFailureClassifiedTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c, err := New(testConfig(srv.URL), nil, nil)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), MustOperation(`{ viewer { name } }`))
	require.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Endpoint: "ftp://example.com"}, nil, nil)
	assert.Error(t, err)
}
