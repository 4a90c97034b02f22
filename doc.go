// Package pageql provides server-driven GraphQL page rendering: a client
// with a normalized, snapshot-restorable result cache, lifetime-scoped
// client providers, and a page-wrapping layer that prefetches queries on
// the server and hands the extracted cache state to the hydrating side.
//
// # Architecture
//
// A request flows through three layers:
//
//	┌─────────────────────────────────────┐
//	│        Page Lifecycle (page)        │  Prefetch, discard render,
//	│   Wrap, Prefetch, Render, Handler   │  head rewind, state merge
//	└─────────────────────────────────────┘
//	           ↓ resolves clients via
//	┌─────────────────────────────────────┐
//	│     Providers + Client (client)     │  Link chain, operation
//	│  ServerProvider / SessionProvider   │  parsing, cache policy
//	└─────────────────────────────────────┘
//	           ↓ reads and writes
//	┌─────────────────────────────────────┐
//	│     Normalized Store (cache)        │  Entity records, query
//	│   WriteQuery / ReadQuery / Extract  │  skeletons, snapshots
//	└─────────────────────────────────────┘
//
// # Client Lifetime
//
// Client instances are never shared across server requests. A
// ServerProvider constructs a fresh client per call so cookies and cached
// results cannot leak between users; a SessionProvider owns exactly one
// client for the session's lifetime, seeded by the first initial state it
// sees. Providers are explicit injected dependencies.
//
// # State Handoff
//
// During prefetch the wrapped page renders once into a discarded buffer so
// every query it issues lands in the per-request cache. The cache is then
// extracted to a JSON-serializable snapshot and merged into the page props
// under page.StateKey. The hydrating side restores the snapshot into its
// session client, so queries answered during prefetch never hit the
// transport again.
//
// # Error Surfacing
//
// Mutation failures reach the user as toasts through the client's error
// link: each GraphQL error becomes one toast, messages complaining about
// unresolved variables are replaced with a generic message, and a
// transport failure produces a single network-error toast. Query failures
// are never toasted; pages consume them through per-query error state.
//
// # Framework Packages
//
//   - cache: normalized entity store, snapshot extract/restore
//   - client: operations, link chain, HTTP transport, providers
//   - toast: notification contract, request-scoped collector
//   - page: page interfaces, prefetch lifecycle, HTTP handler
//   - server: demo page server (chi router, metrics, playground)
//   - errors: structured error classification
//
// # Binary
//
// Build and run the page server:
//
//	go build ./cmd/pageqld
//	export PAGEQL_ENDPOINT=http://localhost:8080/graphql
//	./pageqld --log-format=text
package pageql
