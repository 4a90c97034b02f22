package cache

import (
	"encoding/json"
	"sync"

	"github.com/c360/pageql/errors"
)

// queryKeyPrefix namespaces per-operation records apart from entity records.
const queryKeyPrefix = "ROOT_QUERY."

// Snapshot is a serializable copy of the store's record set. It is embedded
// in page props at the end of a server render pass and used to re-seed a
// fresh store on the hydration side.
type Snapshot map[string]json.RawMessage

// Store is a thread-safe normalized cache mapping record keys to JSON data.
// Entity records are keyed "Typename:id"; per-operation result skeletons are
// keyed under an internal ROOT_QUERY namespace.
type Store struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
	stats   *Statistics
	metrics *storeMetrics
}

// NewStore creates an empty normalized store.
// Returns an error if metrics registration fails when requested.
func NewStore(opts ...Option) (*Store, error) {
	options := applyOptions(opts...)

	var metrics *storeMetrics
	if options.metricsReg != nil && options.metricsPrefix != "" {
		var err error
		metrics, err = newStoreMetrics(options.metricsReg, options.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Store", "NewStore", "metrics registration")
		}
	}

	return &Store{
		records: make(map[string]json.RawMessage),
		stats:   NewStatistics(),
		metrics: metrics,
	}, nil
}

// NewStoreFromSnapshot creates a store seeded with a previously extracted
// snapshot. A nil snapshot yields an empty store.
func NewStoreFromSnapshot(snap Snapshot, opts ...Option) (*Store, error) {
	s, err := NewStore(opts...)
	if err != nil {
		return nil, err
	}
	s.Restore(snap)
	return s, nil
}

// WriteQuery normalizes data and stores it under the given operation key.
// Entities found anywhere in the result are merged into their own records.
func (s *Store) WriteQuery(key string, data json.RawMessage) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Store", "WriteQuery", "key cannot be empty")
	}

	value, err := decodeJSON(data)
	if err != nil {
		return errors.WrapInvalid(err, "Store", "WriteQuery", "decode result data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	skeleton := s.normalizeLocked(value)
	encoded, err := json.Marshal(skeleton)
	if err != nil {
		return errors.WrapInvalid(err, "Store", "WriteQuery", "encode normalized skeleton")
	}
	s.records[queryKeyPrefix+key] = encoded

	s.stats.Write()
	s.stats.UpdateSize(int64(len(s.records)))
	if s.metrics != nil {
		s.metrics.recordWrite()
		s.metrics.updateSize(len(s.records))
	}
	return nil
}

// ReadQuery denormalizes and returns the result previously written under the
// operation key. Returns false if the key has never been written.
func (s *Store) ReadQuery(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.records[queryKeyPrefix+key]
	if !ok {
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
		return nil, false
	}

	value, err := decodeJSON(raw)
	if err != nil {
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
		return nil, false
	}

	resolved := s.denormalizeLocked(value, map[string]bool{})
	encoded, err := json.Marshal(resolved)
	if err != nil {
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
		return nil, false
	}

	s.stats.Hit()
	if s.metrics != nil {
		s.metrics.recordHit()
	}
	return encoded, true
}

// ReadRecord returns the raw normalized record for a key ("Typename:id" for
// entities). Primarily useful for tests and debugging tooling.
func (s *Store) ReadRecord(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.records[key]
	if !ok {
		return nil, false
	}
	return cloneRaw(raw), true
}

// Extract returns a deep copy of the full record set. The snapshot taken at
// the end of a server render pass reflects every query written during that
// pass.
func (s *Store) Extract() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, len(s.records))
	for k, v := range s.records {
		snap[k] = cloneRaw(v)
	}
	return snap
}

// Restore replaces the store contents with the given snapshot.
// A nil snapshot clears the store.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]json.RawMessage, len(snap))
	for k, v := range snap {
		s.records[k] = cloneRaw(v)
	}

	s.stats.UpdateSize(int64(len(s.records)))
	if s.metrics != nil {
		s.metrics.updateSize(len(s.records))
	}
}

// Clear removes all records from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]json.RawMessage)
	s.stats.UpdateSize(0)
	if s.metrics != nil {
		s.metrics.updateSize(0)
	}
}

// Size returns the current number of records (entities plus query skeletons).
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Keys returns all record keys currently in the store.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns the store's statistics tracker.
func (s *Store) Stats() *Statistics {
	return s.stats
}

// cloneRaw copies a raw JSON value so callers cannot alias store internals.
func cloneRaw(raw json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
