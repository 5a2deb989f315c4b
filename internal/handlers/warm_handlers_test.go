package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ma-zone/internal/warmer"
)

// MockWarmEnqueuer is a mock of WarmEnqueuer
type MockWarmEnqueuer struct {
	mock.Mock
}

func (m *MockWarmEnqueuer) Enqueue(ctx context.Context, msg warmer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func postWarm(h *WarmHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/cache/warm", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Warm(rec, req)
	return rec
}

func TestWarmEnqueues(t *testing.T) {
	enqueuer := new(MockWarmEnqueuer)
	enqueuer.On("Enqueue", mock.Anything, warmer.Message{CountryCode: "FR", PageCap: 2}).Return("msg-1", nil)

	rec := postWarm(NewWarmHandler(enqueuer), `{"countryCode":"FR","pageCap":2}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"message":"Warm job enqueued","messageId":"msg-1"}`, rec.Body.String())
	enqueuer.AssertExpectations(t)
}

func TestWarmEmptyBodyUsesDefaults(t *testing.T) {
	enqueuer := new(MockWarmEnqueuer)
	enqueuer.On("Enqueue", mock.Anything, warmer.Message{}).Return("msg-2", nil)

	rec := postWarm(NewWarmHandler(enqueuer), "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	enqueuer.AssertExpectations(t)
}

func TestWarmInvalidBody(t *testing.T) {
	enqueuer := new(MockWarmEnqueuer)

	rec := postWarm(NewWarmHandler(enqueuer), `{"pageCap":"two"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	enqueuer.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWarmQueueFailure(t *testing.T) {
	enqueuer := new(MockWarmEnqueuer)
	enqueuer.On("Enqueue", mock.Anything, mock.Anything).Return("", errors.New("queue unreachable"))

	rec := postWarm(NewWarmHandler(enqueuer), `{}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to enqueue warm job"}`, rec.Body.String())
}
