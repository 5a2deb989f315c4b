// Package favorites keeps the set of favorited event ids in a single durable key.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"ma-zone/internal/kvcache"
)

const Key = "ma-zone:favorites"

// Set is a set of Event ids
type Set map[string]struct{}

// Has reports whether id is in the set
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store reads and writes the favorites array. Concurrent writers are last-writer-wins.
type Store struct {
	kv kvcache.KeyValueCache

	mu  sync.RWMutex
	set Set
}

func NewStore(kv kvcache.KeyValueCache) *Store {
	return &Store{kv: kv, set: Set{}}
}

// Load reads the stored array into memory
func (s *Store) Load(ctx context.Context) Set {
	set := s.read(ctx)
	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return set
}

// IDs returns the current in-memory ids
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Sorted()
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Has(id)
}

// Toggle adds id when absent and removes it when present, then writes the full
// array back. It returns whether id is a favorite afterwards. Nothing is written
// when the stored array cannot be read.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	set, err := s.load(ctx)
	if err != nil {
		return false, fmt.Errorf("read favorites: %w", err)
	}

	_, present := set[id]
	if present {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}

	data, err := json.Marshal(set.Sorted())
	if err != nil {
		return false, fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return false, fmt.Errorf("save favorites: %w", err)
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return !present, nil
}

// Watch recomputes the in-memory set whenever the favorites key changes,
// including writes from other processes, and passes the new set to fn.
// The subscription ends when ctx is done or the returned function is called.
func (s *Store) Watch(ctx context.Context, fn func(Set)) func() {
	unsubscribe := s.kv.Subscribe(func(c kvcache.Change) {
		if c.Key != Key || ctx.Err() != nil {
			return
		}

		var set Set
		if c.Deleted {
			set = Set{}
		} else if c.Value != nil {
			set = decode(c.Value)
		} else {
			set = s.read(ctx)
		}

		s.mu.Lock()
		s.set = set
		s.mu.Unlock()
		fn(copySet(set))
	})

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsubscribe()
		}()
	}
	return unsubscribe
}

// read returns the stored set; storage failures read as an empty set
func (s *Store) read(ctx context.Context) Set {
	set, err := s.load(ctx)
	if err != nil {
		log.Printf("Error reading favorites: %v", err)
		return Set{}
	}
	return set
}

// load returns the stored set or the storage error. A missing or undecodable
// value is an empty set.
func (s *Store) load(ctx context.Context) (Set, error) {
	data, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Set{}, nil
	}
	return decode(data), nil
}

func decode(data []byte) Set {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		log.Printf("Error decoding favorites: %v", err)
		return Set{}
	}
	set := make(Set, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func copySet(s Set) Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
