// SPDX-License-Identifier: MIT

package session

import "sync"

// DefaultGenerationCap bounds the generation cache.
const DefaultGenerationCap = 1000

// Generation is one stateless chat result, cached by its caller-supplied
// message ID.
type Generation struct {
	MessageID          string
	Input              string
	SystemInstructions string
	Model              string
	Options            map[string]any
	ResponseText       string
}

// GenerationCache is a bounded FIFO cache of stateless generations.
type GenerationCache struct {
	cap int

	mu    sync.Mutex
	order []string
	byID  map[string]Generation
}

// NewGenerationCache creates a cache bounded to capacity
// (DefaultGenerationCap when capacity <= 0).
func NewGenerationCache(capacity int) *GenerationCache {
	if capacity <= 0 {
		capacity = DefaultGenerationCap
	}
	return &GenerationCache{
		cap:  capacity,
		byID: make(map[string]Generation),
	}
}

// Put stores a generation, evicting the oldest entries above capacity.
func (c *GenerationCache) Put(g Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[g.MessageID]; !exists {
		for len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.byID, oldest)
		}
		c.order = append(c.order, g.MessageID)
	}
	c.byID[g.MessageID] = g
}

// Get returns the cached generation for messageID.
func (c *GenerationCache) Get(messageID string) (Generation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.byID[messageID]
	return g, ok
}

// Len returns the number of cached generations.
func (c *GenerationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
