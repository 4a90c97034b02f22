package toast

import "sync"

// Toast is a single collected notification.
type Toast struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Collector is a request-scoped Notifier that records notifications so the
// page render can flush them into the response markup. Safe for concurrent
// use.
type Collector struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Notify implements Notifier.
func (c *Collector) Notify(kind Kind, message string) {
	c.mu.Lock()
	c.toasts = append(c.toasts, Toast{Kind: kind, Message: message})
	c.mu.Unlock()
}

// Flush returns all collected toasts and clears the collector.
func (c *Collector) Flush() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.toasts
	c.toasts = nil
	return out
}

// Pending returns the number of toasts collected but not yet flushed.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.toasts)
}
