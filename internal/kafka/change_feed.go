package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"ma-zone/internal/kvcache"
)

const publishQueueSize = 256

// MessageWriter is the producing side of kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReplicatedStore is a cache whose local writes are published and whose
// remote writes are applied without being published again
type ReplicatedStore interface {
	kvcache.KeyValueCache
	kvcache.Replica
}

// ChangeFeed replicates the writes of a store to every process sharing a topic
type ChangeFeed struct {
	store    ReplicatedStore
	writer   MessageWriter
	consumer *BaseConsumer
	queue    chan kvcache.Change
}

// NewChangeFeed connects store to topic. Every process reads the whole topic,
// so the consumer group is unique to the store's origin.
func NewChangeFeed(kafkaURL, topic string, store ReplicatedStore) *ChangeFeed {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(kafkaURL),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return newChangeFeed(store, writer, NewBaseConsumer(kafkaURL, topic, "ma-zone-"+store.Origin()))
}

func newChangeFeed(store ReplicatedStore, writer MessageWriter, consumer *BaseConsumer) *ChangeFeed {
	return &ChangeFeed{
		store:    store,
		writer:   writer,
		consumer: consumer,
		queue:    make(chan kvcache.Change, publishQueueSize),
	}
}

// Run publishes local changes and applies remote ones until ctx is cancelled
func (f *ChangeFeed) Run(ctx context.Context) {
	unsubscribe := f.store.Subscribe(f.enqueue)
	defer unsubscribe()

	go f.consumer.ConsumeMessages(ctx, func(value []byte) error {
		return f.HandleMessage(ctx, value)
	})

	log.Printf("Cache change feed started for origin %s", f.store.Origin())
	for {
		select {
		case <-ctx.Done():
			log.Println("Context cancelled, stopping cache change feed")
			return
		case c := <-f.queue:
			if err := f.publish(ctx, c); err != nil {
				log.Printf("Error publishing cache change for %s: %v", c.Key, err)
			}
		}
	}
}

// Close flushes the writer and closes the reader
func (f *ChangeFeed) Close() error {
	werr := f.writer.Close()
	if err := f.consumer.Close(); err != nil {
		return err
	}
	return werr
}

// enqueue runs inside the store's write path and must not block it
func (f *ChangeFeed) enqueue(c kvcache.Change) {
	if c.Origin != f.store.Origin() {
		return
	}
	select {
	case f.queue <- c:
	default:
		log.Printf("Cache change feed queue is full, change for %s dropped", c.Key)
	}
}

func (f *ChangeFeed) publish(ctx context.Context, c kvcache.Change) error {
	value, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	return f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(c.Key),
		Value: value,
	})
}

// HandleMessage applies a change received from the topic. Changes this
// process published itself are ignored.
func (f *ChangeFeed) HandleMessage(ctx context.Context, value []byte) error {
	var c kvcache.Change
	if err := json.Unmarshal(value, &c); err != nil {
		return fmt.Errorf("decode change: %w", err)
	}
	if c.Key == "" || c.Origin == f.store.Origin() {
		return nil
	}
	return f.store.ApplyRemote(ctx, c)
}
