package kvcache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is the session tier: it lives as long as the process and is lost on exit
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	origin   string
	notifier *Notifier
}

func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		origin:   uuid.NewString(),
		notifier: NewNotifier(),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	return m.apply(Change{Key: key, Value: value, Origin: m.origin})
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	return m.apply(Change{Key: key, Deleted: true, Origin: m.origin})
}

func (m *Memory) Subscribe(fn func(Change)) func() {
	return m.notifier.Subscribe(fn)
}

func (m *Memory) Origin() string {
	return m.origin
}

// ApplyRemote stores a change relayed from another process
func (m *Memory) ApplyRemote(_ context.Context, c Change) error {
	if c.Value == nil && !c.Deleted {
		// Nothing to store locally; still let subscribers re-read.
		m.notifier.Publish(c)
		return nil
	}
	return m.apply(c)
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) apply(c Change) error {
	m.mu.Lock()
	if c.Deleted {
		delete(m.data, c.Key)
	} else {
		m.data[c.Key] = append([]byte(nil), c.Value...)
	}
	m.mu.Unlock()

	m.notifier.Publish(c)
	return nil
}
