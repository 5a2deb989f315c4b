package kvcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// PGListener relays durable-tier changes made by other processes, announced
// with pg_notify, to the local subscribers of a store.
type PGListener struct {
	listener *pq.Listener
	target   Replica
}

// NewPGListener listens on NotifyChannel using a dedicated connection
func NewPGListener(dsn string, target Replica) (*PGListener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("Cache change listener event %d: %v", ev, err)
		}
	})
	if err := l.Listen(NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return &PGListener{listener: l, target: target}, nil
}

// Run relays notifications until ctx is cancelled
func (p *PGListener) Run(ctx context.Context) error {
	log.Printf("Listening for cache changes on channel %s", NotifyChannel)
	defer p.listener.Close()

	for {
		select {
		case <-ctx.Done():
			log.Println("Context cancelled, stopping cache change listener")
			return ctx.Err()

		case n := <-p.listener.Notify:
			// nil is sent after a reconnect; missed notifications are not replayed.
			if n == nil {
				continue
			}
			p.handle(ctx, n.Extra)

		case <-time.After(90 * time.Second):
			if err := p.listener.Ping(); err != nil {
				log.Printf("Error pinging cache change listener: %v", err)
			}
		}
	}
}

func (p *PGListener) handle(ctx context.Context, payload string) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		log.Printf("Error decoding cache change notification: %v", err)
		return
	}
	if c.Origin == p.target.Origin() {
		return
	}
	if err := p.target.ApplyRemote(ctx, c); err != nil {
		log.Printf("Error applying cache change for %s: %v", c.Key, err)
	}
}
