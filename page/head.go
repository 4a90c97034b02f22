package page

import "sync"

// Head is a request-scoped registry of head-tag side effects. Render passes
// append to it; the prefetch discard render bypasses normal response
// plumbing, so its side effects must be rewound manually before the real
// render runs.
type Head struct {
	mu   sync.Mutex
	tags []string
}

// NewHead creates an empty head registry.
func NewHead() *Head {
	return &Head{}
}

// Add records a head tag emitted during render.
func (h *Head) Add(tag string) {
	h.mu.Lock()
	h.tags = append(h.tags, tag)
	h.mu.Unlock()
}

// Tags returns the tags collected so far.
func (h *Head) Tags() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.tags))
	copy(out, h.tags)
	return out
}

// Rewind clears the registry, returning what was collected. Called after the
// prefetch render pass so discarded output leaves no head-tag residue.
func (h *Head) Rewind() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.tags
	h.tags = nil
	return out
}
