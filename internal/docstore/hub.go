package docstore

import (
	"sync"
	"sync/atomic"
)

// hub fans collection snapshots out to in-process subscribers.
//
// Every snapshot carries a sequence number drawn when the snapshot is taken
// (or, for reloads, before the reload starts). Delivery per collection is
// serialized and a snapshot older than the last one delivered is dropped,
// so subscribers never move back to an earlier state.
type hub struct {
	seq atomic.Uint64

	mu     sync.RWMutex
	next   int
	subs   map[string]map[int]func([]Record)
	topics map[string]*topic
}

type topic struct {
	mu        sync.Mutex
	delivered uint64
}

func newHub() *hub {
	return &hub{
		subs:   make(map[string]map[int]func([]Record)),
		topics: make(map[string]*topic),
	}
}

func (h *hub) add(collection string, fn func([]Record)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]func([]Record))
	}
	h.subs[collection][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collection], id)
			if len(h.subs[collection]) == 0 {
				delete(h.subs, collection)
			}
		})
	}
}

func (h *hub) has(collection string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection]) > 0
}

// stamp returns the sequence number for a snapshot about to be taken. Callers
// must draw it while the state they snapshot can no longer be overtaken by
// an earlier write, i.e. under the store lock or after the write committed.
func (h *hub) stamp() uint64 {
	return h.seq.Add(1)
}

func (h *hub) topicFor(collection string) *topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[collection]
	if !ok {
		t = &topic{}
		h.topics[collection] = t
	}
	return t
}

// publish delivers records stamped with seq to every subscriber of
// collection, unless a newer snapshot was already delivered. Callbacks run
// outside the hub lock so they may unsubscribe, but must not write to the
// same collection.
func (h *hub) publish(collection string, seq uint64, records []Record) {
	t := h.topicFor(collection)
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq <= t.delivered {
		return
	}
	t.delivered = seq

	h.mu.RLock()
	fns := make([]func([]Record), 0, len(h.subs[collection]))
	for _, fn := range h.subs[collection] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(cloneAll(records))
	}
}

// refresh reloads collection and publishes the result. The stamp is drawn
// before the load, so a reload that started later always wins.
func (h *hub) refresh(collection string, load func() ([]Record, error)) error {
	if !h.has(collection) {
		return nil
	}
	seq := h.stamp()
	records, err := load()
	if err != nil {
		return err
	}
	h.publish(collection, seq, records)
	return nil
}

func (h *hub) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[string]map[int]func([]Record))
	h.topics = make(map[string]*topic)
}

func cloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
