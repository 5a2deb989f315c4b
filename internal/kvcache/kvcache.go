// Package kvcache provides the key-value capability used by the detail handoff
// cache and the favorites store, with a session tier and a durable tier.
package kvcache

import (
	"context"
	"sync"
)

// Change describes a write observed on a store. Value is nil for deletions and
// may be nil for changes relayed from another process; readers re-read the key.
type Change struct {
	Key     string `json:"key"`
	Value   []byte `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Origin  string `json:"origin"`
}

// KeyValueCache is a byte-valued store whose writes can be observed
type KeyValueCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Subscribe registers fn for every change, including changes made by other
	// processes when the store is connected to a change feed.
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Replica is implemented by stores that can apply a change received from
// another process without announcing it again.
type Replica interface {
	Origin() string
	ApplyRemote(ctx context.Context, c Change) error
}

// Notifier fans changes out to subscribers
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns its unsubscribe function
func (n *Notifier) Subscribe(fn func(Change)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish calls every subscriber synchronously, outside the lock
func (n *Notifier) Publish(c Change) {
	n.mu.RLock()
	fns := make([]func(Change), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
