package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationKinds(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantKind Kind
		wantName string
	}{
		{
			name:     "named query",
			document: `query Viewer { viewer { name } }`,
			wantKind: KindQuery,
			wantName: "Viewer",
		},
		{
			name:     "anonymous query",
			document: `{ viewer { name } }`,
			wantKind: KindQuery,
			wantName: "",
		},
		{
			name:     "named mutation",
			document: `mutation Vote($id: ID!) { vote(id: $id) { id } }`,
			wantKind: KindMutation,
			wantName: "Vote",
		},
		{
			name:     "subscription",
			document: `subscription OnVote { voteAdded { id } }`,
			wantKind: KindSubscription,
			wantName: "OnVote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewOperation(tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, op.Kind())
			assert.Equal(t, tt.wantName, op.Name)
			assert.Equal(t, tt.wantKind == KindMutation, op.IsMutation())
		})
	}
}

func TestNewOperationInvalid(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"empty document", ""},
		{"syntax error", `query { viewer {`},
		{"no operations", `fragment F on User { name }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOperation(tt.document)
			assert.Error(t, err)
		})
	}
}

func TestMustOperationPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustOperation(`query {`)
	})
	assert.NotPanics(t, func() {
		MustOperation(`{ viewer { name } }`)
	})
}

func TestWithVariablesDoesNotMutateReceiver(t *testing.T) {
	base := MustOperation(`query Item($id: ID!) { item(id: $id) { id } }`)

	withVars := base.WithVariables(map[string]any{"id": "1"})

	assert.Nil(t, base.Variables)
	assert.Equal(t, map[string]any{"id": "1"}, withVars.Variables)
	assert.Equal(t, base.Document, withVars.Document)
}

func TestOperationKey(t *testing.T) {
	named := MustOperation(`query Item($id: ID!) { item(id: $id) { id } }`).
		WithVariables(map[string]any{"id": "1"})
	assert.Equal(t, `Item({"id":"1"})`, named.Key())

	// Anonymous operations key off the first root field
	anon := MustOperation(`{ viewer { name } }`)
	assert.Equal(t, "viewer", anon.Key())

	// Same variables produce the same key regardless of insertion order
	a := named.WithVariables(map[string]any{"a": 1, "b": 2})
	b := named.WithVariables(map[string]any{"b": 2, "a": 1})
	assert.Equal(t, a.Key(), b.Key())
}

func TestMarshalRequest(t *testing.T) {
	op := MustOperation(`query Item($id: ID!) { item(id: $id) { id } }`).
		WithVariables(map[string]any{"id": "1"})

	body, err := op.MarshalRequest()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, op.Document, decoded["query"])
	assert.Equal(t, "Item", decoded["operationName"])
	assert.Equal(t, map[string]any{"id": "1"}, decoded["variables"])
}
