package warmer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ma-zone/internal/models"
	"ma-zone/internal/services"
)

// MockSQS is a mock of sqsutil.API
type MockSQS struct {
	mock.Mock
}

func (m *MockSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func (m *MockSQS) DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageBatchOutput), args.Error(1)
}

// MockAggregator is a mock of Aggregator
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) Aggregate(ctx context.Context, q services.AggregateQuery) (*models.AggregateResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AggregateResult), args.Error(1)
}

type recordingMirror struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingMirror) Mirror(_ context.Context, events []models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingMirror) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

const queueURL = "https://sqs.eu-west-3.amazonaws.com/123/ma-zone-warm"

func TestEnqueueSendsJSON(t *testing.T) {
	client := new(MockSQS)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var m Message
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &m); err != nil {
			return false
		}
		return aws.ToString(in.QueueUrl) == queueURL && m.CountryCode == "FR" && m.PageCap == 3
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil)

	p := NewProcessor(client, queueURL, new(MockAggregator), &recordingMirror{})
	id, err := p.Enqueue(context.Background(), Message{CountryCode: "FR", PageCap: 3})

	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	client.AssertExpectations(t)
}

func TestEnqueueWithoutQueue(t *testing.T) {
	client := new(MockSQS)
	p := NewProcessor(client, "", new(MockAggregator), &recordingMirror{})

	_, err := p.Enqueue(context.Background(), Message{})
	assert.Error(t, err)
	assert.Error(t, p.ProcessMessages(context.Background()))
	client.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestProcessMessageMirrorsEvents(t *testing.T) {
	aggregator := new(MockAggregator)
	aggregator.On("Aggregate", mock.Anything, services.AggregateQuery{LatLong: "45.7,4.8", Radius: "50"}).
		Return(&models.AggregateResult{Events: []models.Event{{ID: "tm_1"}, {ID: "eb_2"}}}, nil)

	mirror := &recordingMirror{}
	p := NewProcessor(new(MockSQS), queueURL, aggregator, mirror)

	require.NoError(t, p.ProcessMessage(context.Background(), `{"latlong":"45.7,4.8","radius":"50"}`))
	assert.Equal(t, 2, mirror.count())
	aggregator.AssertExpectations(t)
}

func TestProcessMessageFailures(t *testing.T) {
	aggregator := new(MockAggregator)
	p := NewProcessor(new(MockSQS), queueURL, aggregator, &recordingMirror{})

	assert.Error(t, p.ProcessMessage(context.Background(), "not json"))

	aggregator.On("Aggregate", mock.Anything, services.AggregateQuery{CountryCode: "XX"}).
		Return(&models.AggregateResult{
			Events: []models.Event{},
			Errors: map[models.Source]*models.ProviderError{
				models.SourceTicketmaster: {Message: "Ticketmaster API error", Status: 500},
			},
		}, nil)
	assert.Error(t, p.ProcessMessage(context.Background(), `{"countryCode":"XX"}`))

	aggregator.On("Aggregate", mock.Anything, services.AggregateQuery{CountryCode: "YY"}).
		Return(nil, &services.ConfigurationError{Message: "No event provider configured"})
	assert.Error(t, p.ProcessMessage(context.Background(), `{"countryCode":"YY"}`))
}

func TestProcessMessagesDeletesSuccessfulJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := new(MockSQS)
	client.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{
		Messages: []types.Message{
			{MessageId: aws.String("ok"), ReceiptHandle: aws.String("r-ok"), Body: aws.String(`{"countryCode":"FR"}`)},
			{MessageId: aws.String("bad"), ReceiptHandle: aws.String("r-bad"), Body: aws.String(`garbage`)},
		},
	}, nil).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&sqs.ReceiveMessageOutput{}, nil)
	client.On("DeleteMessageBatch", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageBatchInput) bool {
		return len(in.Entries) == 1 && aws.ToString(in.Entries[0].Id) == "ok"
	})).Return(&sqs.DeleteMessageBatchOutput{}, nil).Once()

	aggregator := new(MockAggregator)
	aggregator.On("Aggregate", mock.Anything, services.AggregateQuery{CountryCode: "FR"}).
		Return(&models.AggregateResult{Events: []models.Event{{ID: "tm_1"}}}, nil)

	mirror := &recordingMirror{}
	err := NewProcessor(client, queueURL, aggregator, mirror).ProcessMessages(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, mirror.count())
	client.AssertExpectations(t)
}
