package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process document store. It backs tests and single-node
// development; subscribers are notified synchronously after each write.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	hub         *hub
	closed      bool
}

type memCollection struct {
	order []string
	docs  map[string]Record
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memCollection),
		hub:         newHub(),
	}
}

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]Record)}
		m.collections[name] = c
	}
	return c
}

func (c *memCollection) snapshot() []Record {
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		rec := c.docs[id].Clone()
		rec[IDField] = id
		out = append(out, rec)
	}
	return out
}

func (m *Memory) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	c, ok := m.collections[collection]
	if !ok {
		return []Record{}, nil
	}
	return c.snapshot(), nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	c := m.collection(collection)
	c.docs[id] = fields.withoutID()
	c.order = append(c.order, id)
	snap, seq := c.snapshot(), m.hub.stamp()
	m.mu.Unlock()

	m.hub.publish(collection, seq, snap)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	c := m.collection(collection)
	existing, ok := c.docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	c.docs[id] = existing.Merge(patch.withoutID())
	snap, seq := c.snapshot(), m.hub.stamp()
	m.mu.Unlock()

	m.hub.publish(collection, seq, snap)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	c := m.collection(collection)
	if _, ok := c.docs[id]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	snap, seq := c.snapshot(), m.hub.stamp()
	m.mu.Unlock()

	m.hub.publish(collection, seq, snap)
	return nil
}

func (m *Memory) Subscribe(_ context.Context, collection string, onChange func([]Record)) (func(), error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.hub.add(collection, onChange), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.hub.clear()
	return nil
}
