package handlers

import (
	"log"
	"sync"
)

const (
	subscriberBufferSize = 8
	broadcastBufferSize  = 32
)

// Subscriber is one open favorites stream
type Subscriber struct {
	updates chan []string
	done    chan struct{}
}

func (s *Subscriber) Updates() <-chan []string {
	return s.updates
}

func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Hub fans favorites snapshots out to stream subscribers.
// A single goroutine owns the subscriber set.
type Hub struct {
	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan []string
	stop       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		broadcast:  make(chan []string, broadcastBufferSize),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run blocks until Stop is called
func (h *Hub) Run() {
	clients := make(map[*Subscriber]struct{})
	defer close(h.stopped)

	for {
		select {
		case sub := <-h.register:
			clients[sub] = struct{}{}

		case sub := <-h.unregister:
			if _, ok := clients[sub]; ok {
				delete(clients, sub)
				close(sub.done)
				close(sub.updates)
			}

		case ids := <-h.broadcast:
			for sub := range clients {
				select {
				case sub.updates <- ids:
				default:
					log.Println("Favorites stream subscriber is full, update dropped")
				}
			}

		case <-h.stop:
			for sub := range clients {
				close(sub.done)
				close(sub.updates)
			}
			return
		}
	}
}

// Stop ends Run and waits for it. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.stopped
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		updates: make(chan []string, subscriberBufferSize),
		done:    make(chan struct{}),
	}

	select {
	case h.register <- sub:
	case <-h.stopped:
		close(sub.done)
		close(sub.updates)
	}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	select {
	case h.unregister <- sub:
	case <-h.stopped:
	}
}

// Publish queues a snapshot for every subscriber; it never blocks
func (h *Hub) Publish(ids []string) {
	select {
	case h.broadcast <- ids:
	case <-h.stopped:
	default:
		log.Println("Favorites broadcast queue is full, update dropped")
	}
}
