package client

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/c360/pageql/cache"
	"github.com/c360/pageql/errors"
)

// Kind identifies the GraphQL operation type.
type Kind string

const (
	// KindQuery is a read operation, eligible for cache-first execution.
	KindQuery Kind = "query"
	// KindMutation is a write operation; its errors surface as toasts.
	KindMutation Kind = "mutation"
	// KindSubscription is parsed but not executable over the HTTP link.
	KindSubscription Kind = "subscription"
)

// Operation is a parsed GraphQL operation ready for execution. The document
// is parsed once at construction so the link chain can branch on the
// operation kind without re-parsing.
type Operation struct {
	// Document is the raw GraphQL document text.
	Document string

	// Name is the operation name, if the document declares one.
	Name string

	// Variables are the operation variables, serialized into the request.
	Variables map[string]any

	kind      Kind
	rootField string
}

// NewOperation parses a GraphQL document and returns an executable operation.
// Documents with multiple operations execute the first; invalid or empty
// documents are rejected.
func NewOperation(document string) (*Operation, error) {
	if document == "" {
		return nil, errors.WrapInvalid(errors.ErrEmptyDocument, "Operation", "NewOperation",
			"document cannot be empty")
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: "operation", Input: document})
	if err != nil {
		return nil, errors.WrapInvalid(err, "Operation", "NewOperation", "parse document")
	}
	if len(doc.Operations) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyDocument, "Operation", "NewOperation",
			"document declares no operations")
	}

	def := doc.Operations[0]

	op := &Operation{
		Document: document,
		Name:     def.Name,
		kind:     Kind(def.Operation),
	}

	// The first root field names the cache key for anonymous operations.
	for _, sel := range def.SelectionSet {
		if field, ok := sel.(*ast.Field); ok {
			op.rootField = field.Name
			break
		}
	}

	return op, nil
}

// MustOperation is NewOperation for statically known documents; it panics on
// parse failure. Intended for package-level operation declarations.
func MustOperation(document string) *Operation {
	op, err := NewOperation(document)
	if err != nil {
		panic(err)
	}
	return op
}

// WithVariables returns a copy of the operation carrying the given variables.
// The receiver is not modified, so package-level operations stay reusable.
func (o *Operation) WithVariables(vars map[string]any) *Operation {
	clone := *o
	clone.Variables = vars
	return &clone
}

// Kind returns the operation type.
func (o *Operation) Kind() Kind {
	return o.kind
}

// IsMutation reports whether this operation is a mutation.
func (o *Operation) IsMutation() bool {
	return o.kind == KindMutation
}

// Key returns the canonical cache key for this operation: the operation name
// (or first root field for anonymous documents) plus canonicalized variables.
func (o *Operation) Key() string {
	base := o.Name
	if base == "" {
		base = o.rootField
	}
	return cache.FieldKey(base, o.Variables)
}

// requestBody is the GraphQL-over-HTTP POST payload.
type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// MarshalRequest encodes the operation as a GraphQL HTTP request body.
func (o *Operation) MarshalRequest() ([]byte, error) {
	body, err := json.Marshal(requestBody{
		Query:         o.Document,
		OperationName: o.Name,
		Variables:     o.Variables,
	})
	if err != nil {
		return nil, errors.WrapInvalid(err, "Operation", "MarshalRequest", "marshal request body")
	}
	return body, nil
}
