// Package cache provides a thread-safe normalized cache for GraphQL results.
//
// Results written to the store are normalized: any object carrying both a
// __typename and an id is flattened into its own record keyed "Typename:id",
// and the parent field is replaced by a reference. Reads denormalize on the
// way out, so a query served from the store returns the same shape the
// transport produced.
//
// The store round-trips through Snapshot values: Extract serializes the full
// record set at the end of a server render pass, and Restore re-seeds a fresh
// store on the hydration side without refetching.
//
// Statistics are always collected (observability is not optional); Prometheus
// export is opt-in via WithMetrics.
package cache
