package service

import (
	"slices"
	"sync"

	"reputation-service/internal/models"
)

// Corpus is the set of analysed items served over the API. Items are
// added after annotation and are not modified once stored; replacing an
// id swaps in the new pointer.
type Corpus struct {
	mu    sync.RWMutex
	items []*models.ContentItem
	index map[string]int
}

func NewCorpus() *Corpus {
	return &Corpus{index: make(map[string]int)}
}

// Upsert adds items, replacing any stored item with the same id in place.
func (c *Corpus) Upsert(items ...*models.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range items {
		if it == nil {
			continue
		}
		if i, ok := c.index[it.ID]; ok {
			c.items[i] = it
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
}

// Items returns a copy of the item list in insertion order.
func (c *Corpus) Items() []*models.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Corpus) Get(id string) (*models.ContentItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
