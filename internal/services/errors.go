package services

import (
	"errors"
	"fmt"

	"ma-zone/internal/models"
)

// ConfigurationError is returned when a provider cannot be used with the current configuration,
// typically because its credential is missing.
type ConfigurationError struct {
	Provider models.Source
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// UpstreamError is a non-2xx answer from a provider. Status and Body are surfaced verbatim.
type UpstreamError struct {
	Provider models.Source
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider.DisplayName(), e.Status, e.Body)
}

// ValidationError rejects a request before any network call is made
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProviderErrorFrom converts a branch failure into the entry reported in AggregateResult.Errors
func ProviderErrorFrom(err error) *models.ProviderError {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return &models.ProviderError{
			Message: fmt.Sprintf("%s API error", upstream.Provider.DisplayName()),
			Status:  upstream.Status,
			Details: upstream.Body,
		}
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return &models.ProviderError{Message: cfgErr.Message}
	}
	return &models.ProviderError{Message: err.Error()}
}
