package cache

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(opts...)
	require.NoError(t, err)
	return s
}

func TestWriteReadRoundtrip(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{"viewer":{"name":"ada","count":3}}`)
	require.NoError(t, s.WriteQuery("viewer", data))

	got, ok := s.ReadQuery("viewer")
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
}

func TestReadQueryMiss(t *testing.T) {
	s := mustStore(t)

	_, ok := s.ReadQuery("never-written")
	assert.False(t, ok)
	assert.Equal(t, int64(1), s.Stats().Misses())
}

func TestWriteQueryEmptyKey(t *testing.T) {
	s := mustStore(t)

	err := s.WriteQuery("", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestEntityNormalization(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{
		"item": {"__typename": "Item", "id": "1", "title": "hello"}
	}`)
	require.NoError(t, s.WriteQuery(`item({"id":"1"})`, data))

	// Entity flattened into its own record
	record, ok := s.ReadRecord("Item:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"__typename":"Item","id":"1","title":"hello"}`, string(record))

	// Read resolves the reference back to the original shape
	got, ok := s.ReadQuery(`item({"id":"1"})`)
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
}

func TestNumericIDNormalization(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{"item":{"__typename":"Item","id":42,"score":9.5}}`)
	require.NoError(t, s.WriteQuery("item", data))

	_, ok := s.ReadRecord("Item:42")
	assert.True(t, ok)

	got, ok := s.ReadQuery("item")
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
}

func TestNestedAndListedEntities(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{
		"feed": [
			{"__typename": "Item", "id": "1", "author": {"__typename": "User", "id": "u1", "name": "ada"}},
			{"__typename": "Item", "id": "2", "author": {"__typename": "User", "id": "u1", "name": "ada"}}
		]
	}`)
	require.NoError(t, s.WriteQuery("feed", data))

	// Both items and the shared author normalized
	for _, key := range []string{"Item:1", "Item:2", "User:u1"} {
		_, ok := s.ReadRecord(key)
		assert.True(t, ok, "expected record %s", key)
	}

	got, ok := s.ReadQuery("feed")
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
}

func TestEntityMergeAcrossQueries(t *testing.T) {
	s := mustStore(t)

	require.NoError(t, s.WriteQuery("a", json.RawMessage(
		`{"item":{"__typename":"Item","id":"1","title":"hello"}}`)))
	require.NoError(t, s.WriteQuery("b", json.RawMessage(
		`{"item":{"__typename":"Item","id":"1","votes":10}}`)))

	record, ok := s.ReadRecord("Item:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"__typename":"Item","id":"1","title":"hello","votes":10}`, string(record))

	// The merged field is visible through the first query's read
	got, ok := s.ReadQuery("a")
	require.True(t, ok)
	assert.JSONEq(t, `{"item":{"__typename":"Item","id":"1","title":"hello","votes":10}}`, string(got))
}

func TestObjectsWithoutIdentityStayInline(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{"settings":{"theme":"dark","__typename":"Settings"}}`)
	require.NoError(t, s.WriteQuery("settings", data))

	// No id, so no entity record
	_, ok := s.ReadRecord("Settings:")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Size())

	got, ok := s.ReadQuery("settings")
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
}

func TestExtractRestore(t *testing.T) {
	s := mustStore(t)

	data := json.RawMessage(`{"item":{"__typename":"Item","id":"1","title":"hello"}}`)
	require.NoError(t, s.WriteQuery("item", data))

	snap := s.Extract()
	require.NotEmpty(t, snap)

	restored, err := NewStoreFromSnapshot(snap)
	require.NoError(t, err)

	got, ok := restored.ReadQuery("item")
	require.True(t, ok)
	assert.JSONEq(t, string(data), string(got))
	assert.Equal(t, s.Size(), restored.Size())
}

func TestSnapshotSerializable(t *testing.T) {
	s := mustStore(t)
	require.NoError(t, s.WriteQuery("item",
		json.RawMessage(`{"item":{"__typename":"Item","id":"1"}}`)))

	encoded, err := json.Marshal(s.Extract())
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	restored, err := NewStoreFromSnapshot(decoded)
	require.NoError(t, err)

	_, ok := restored.ReadQuery("item")
	assert.True(t, ok)
}

func TestExtractIsDeepCopy(t *testing.T) {
	s := mustStore(t)
	require.NoError(t, s.WriteQuery("k", json.RawMessage(`{"v":1}`)))

	snap := s.Extract()
	for key := range snap {
		snap[key] = json.RawMessage(`{"v":"tampered"}`)
	}

	got, ok := s.ReadQuery("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":1}`, string(got))
}

func TestRestoreNilClears(t *testing.T) {
	s := mustStore(t)
	require.NoError(t, s.WriteQuery("k", json.RawMessage(`{"v":1}`)))

	s.Restore(nil)
	assert.Equal(t, 0, s.Size())
}

func TestClearAndKeys(t *testing.T) {
	s := mustStore(t)
	require.NoError(t, s.WriteQuery("k",
		json.RawMessage(`{"item":{"__typename":"Item","id":"1"}}`)))

	assert.ElementsMatch(t, []string{"ROOT_QUERY.k", "Item:1"}, s.Keys())

	s.Clear()
	assert.Equal(t, 0, s.Size())
	assert.Empty(t, s.Keys())
}

func TestReferenceCycleDoesNotLoop(t *testing.T) {
	// Craft a snapshot where two entities reference each other.
	snap := Snapshot{
		"ROOT_QUERY.q": json.RawMessage(`{"a":{"__ref":"Node:a"}}`),
		"Node:a":       json.RawMessage(`{"__typename":"Node","id":"a","peer":{"__ref":"Node:b"}}`),
		"Node:b":       json.RawMessage(`{"__typename":"Node","id":"b","peer":{"__ref":"Node:a"}}`),
	}
	s, err := NewStoreFromSnapshot(snap)
	require.NoError(t, err)

	got, ok := s.ReadQuery("q")
	require.True(t, ok)

	// The cycle is cut by leaving the repeated node as a bare reference.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	a := decoded["a"].(map[string]any)
	assert.Equal(t, "a", a["id"])
	b := a["peer"].(map[string]any)
	assert.Equal(t, "b", b["id"])
	assert.Equal(t, map[string]any{"__ref": "Node:a"}, b["peer"])
}

func TestDanglingReference(t *testing.T) {
	snap := Snapshot{
		"ROOT_QUERY.q": json.RawMessage(`{"a":{"__ref":"Node:missing"}}`),
	}
	s, err := NewStoreFromSnapshot(snap)
	require.NoError(t, err)

	got, ok := s.ReadQuery("q")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":{"__ref":"Node:missing"}}`, string(got))
}

func TestStatsTracking(t *testing.T) {
	s := mustStore(t)

	require.NoError(t, s.WriteQuery("k", json.RawMessage(`{"v":1}`)))
	s.ReadQuery("k")
	s.ReadQuery("nope")

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Writes())
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, int64(1), stats.Misses())
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
	assert.Equal(t, int64(1), stats.CurrentSize())
}

func TestWithMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	s, err := NewStore(WithMetrics(reg, "test"))
	require.NoError(t, err)
	require.NoError(t, s.WriteQuery("k", json.RawMessage(`{"v":1}`)))

	// Registering a second store with the same prefix collides
	_, err = NewStore(WithMetrics(reg, "test"))
	assert.Error(t, err)
}

func TestFieldKey(t *testing.T) {
	tests := []struct {
		name  string
		field string
		args  map[string]any
		want  string
	}{
		{"no args", "viewer", nil, "viewer"},
		{"single arg", "item", map[string]any{"id": "1"}, `item({"id":"1"})`},
		{"sorted args", "feed", map[string]any{"offset": 10, "limit": 5}, `feed({"limit":5,"offset":10})`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldKey(tt.field, tt.args))
		})
	}
}
