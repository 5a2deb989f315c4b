package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ma-zone/internal/models"
)

type MockTicketmasterFetcher struct {
	mock.Mock
}

func (m *MockTicketmasterFetcher) GetEvent(ctx context.Context, id string) (models.RawTicketmasterItem, json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(1).(json.RawMessage)
	return args.Get(0).(models.RawTicketmasterItem), raw, args.Error(2)
}

type MockEventbriteFetcher struct {
	mock.Mock
}

func (m *MockEventbriteFetcher) GetEvent(ctx context.Context, id string) (models.RawEventbriteItem, json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(1).(json.RawMessage)
	return args.Get(0).(models.RawEventbriteItem), raw, args.Error(2)
}

func TestResolveInvalidSourceMakesNoCall(t *testing.T) {
	tm := new(MockTicketmasterFetcher)
	eb := new(MockEventbriteFetcher)

	_, err := NewDetailResolver(tm, eb).Resolve(context.Background(), "meetup", "123")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Invalid source", validation.Message)
	tm.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
	eb.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
}

func TestResolveEmptyID(t *testing.T) {
	_, err := NewDetailResolver(new(MockTicketmasterFetcher), nil).Resolve(context.Background(), "tm", "  ")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "id", validation.Field)
}

func TestResolveAliasAndGlobalID(t *testing.T) {
	tm := new(MockTicketmasterFetcher)
	raw := json.RawMessage(`{"id":"G5","name":"Show"}`)
	tm.On("GetEvent", mock.Anything, "G5").Return(models.RawTicketmasterItem{ID: "G5", Name: "Show"}, raw, nil)

	detail, err := NewDetailResolver(tm, nil).Resolve(context.Background(), "TM", "tm_G5")
	require.NoError(t, err)

	assert.Equal(t, models.SourceTicketmaster, detail.Source)
	assert.Equal(t, "G5", detail.Detail.SourceID)
	assert.Equal(t, "Show", detail.Detail.Title)
	assert.JSONEq(t, string(raw), string(detail.Raw))
	tm.AssertExpectations(t)
}

func TestResolveMissingCredential(t *testing.T) {
	r := NewDetailResolver(nil, nil)

	_, err := r.Resolve(context.Background(), "ticketmaster", "1")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Missing Ticketmaster API key", cfgErr.Message)

	_, err = r.Resolve(context.Background(), "eventbrite", "1")
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Missing Eventbrite API token", cfgErr.Message)
}

func TestResolveUpstreamPassthrough(t *testing.T) {
	eb := new(MockEventbriteFetcher)
	upstream := &UpstreamError{Provider: models.SourceEventbrite, Status: 404, Body: `{"error":"NOT_FOUND"}`}
	eb.On("GetEvent", mock.Anything, "42").Return(models.RawEventbriteItem{}, nil, upstream)

	_, err := NewDetailResolver(nil, eb).Resolve(context.Background(), "eb", "42")

	var got *UpstreamError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 404, got.Status)
	assert.Equal(t, `{"error":"NOT_FOUND"}`, got.Body)
}

func TestProviderErrorFrom(t *testing.T) {
	pe := ProviderErrorFrom(&UpstreamError{Provider: models.SourceTicketmaster, Status: 500, Body: "oops"})
	assert.Equal(t, "Ticketmaster API error", pe.Message)
	assert.Equal(t, 500, pe.Status)
	assert.Equal(t, "oops", pe.Details)

	pe = ProviderErrorFrom(&ConfigurationError{Message: NoOrganizationMessage})
	assert.Equal(t, NoOrganizationMessage, pe.Message)
	assert.Zero(t, pe.Status)
}
