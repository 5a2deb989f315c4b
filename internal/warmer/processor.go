// Package warmer fills the durable detail cache from queued aggregate queries,
// so detail pages opened later find a cached event.
package warmer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"ma-zone/internal/models"
	"ma-zone/internal/services"
	"ma-zone/internal/sqsutil"
)

// Message is a warm job: an aggregate query whose events are mirrored
type Message struct {
	CountryCode string `json:"countryCode,omitempty"`
	LatLong     string `json:"latlong,omitempty"`
	Radius      string `json:"radius,omitempty"`
	Size        string `json:"size,omitempty"`
	Locale      string `json:"locale,omitempty"`
	PageCap     int    `json:"pageCap,omitempty"`
}

func (m Message) Query() services.AggregateQuery {
	return services.AggregateQuery{
		CountryCode: m.CountryCode,
		LatLong:     m.LatLong,
		Radius:      m.Radius,
		Size:        m.Size,
		Locale:      m.Locale,
		PageCap:     m.PageCap,
	}
}

type Aggregator interface {
	Aggregate(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error)
}

type Mirror interface {
	Mirror(ctx context.Context, events []models.Event)
}

// Processor consumes the warm queue
type Processor struct {
	sqsClient  sqsutil.API
	queueURL   string
	aggregator Aggregator
	mirror     Mirror
}

func NewProcessor(sqsClient sqsutil.API, queueURL string, aggregator Aggregator, mirror Mirror) *Processor {
	return &Processor{
		sqsClient:  sqsClient,
		queueURL:   queueURL,
		aggregator: aggregator,
		mirror:     mirror,
	}
}

// Enqueue sends a warm job to the queue
func (p *Processor) Enqueue(ctx context.Context, m Message) (string, error) {
	if p.queueURL == "" {
		return "", errors.New("warm queue URL not configured")
	}
	return sqsutil.SendJSON(ctx, p.sqsClient, p.queueURL, m)
}

// ProcessMessages polls the queue until ctx is cancelled. Failed jobs are not
// deleted and become visible again for another attempt.
func (p *Processor) ProcessMessages(ctx context.Context) error {
	if p.queueURL == "" {
		log.Println("Warm queue URL not configured, skipping cache warming")
		return fmt.Errorf("warm queue URL not configured")
	}

	log.Printf("Starting to process warm jobs from %s", p.queueURL)

	for {
		if err := ctx.Err(); err != nil {
			log.Println("Context cancelled, stopping cache warming")
			return err
		}

		rawMessages, err := sqsutil.ReceiveMessage(ctx, p.sqsClient, p.queueURL)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("Error receiving messages from warm queue: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		if len(rawMessages) == 0 {
			continue
		}

		var done []types.DeleteMessageBatchRequestEntry
		for _, raw := range rawMessages {
			if raw.Body == nil {
				continue
			}
			if err := p.ProcessMessage(ctx, *raw.Body); err != nil {
				log.Printf("Error processing warm job: %v, it will be retried", err)
				continue
			}
			done = append(done, types.DeleteMessageBatchRequestEntry{
				Id:            raw.MessageId,
				ReceiptHandle: raw.ReceiptHandle,
			})
		}

		if err := sqsutil.DeleteMessageBatch(ctx, p.sqsClient, p.queueURL, done); err != nil {
			log.Printf("Error batch deleting warm jobs: %v", err)
		}
	}
}

// ProcessMessage runs one warm job. A job fails only when no provider answered.
func (p *Processor) ProcessMessage(ctx context.Context, body string) error {
	var m Message
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return fmt.Errorf("error unmarshalling warm job: %w", err)
	}

	result, err := p.aggregator.Aggregate(ctx, m.Query())
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if len(result.Events) == 0 && len(result.Errors) > 0 {
		return fmt.Errorf("every provider failed: %d errors", len(result.Errors))
	}

	p.mirror.Mirror(ctx, result.Events)
	log.Printf("Warmed cache with %d events", len(result.Events))
	return nil
}
