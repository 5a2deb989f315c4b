package normalize

import (
	"strings"

	"ma-zone/internal/models"
)

// Short prefixes used to build globally unique event ids and accepted as source aliases.
const (
	PrefixTicketmaster = "tm"
	PrefixEventbrite   = "eb"
)

// Prefix returns the short id prefix of a source
func Prefix(source models.Source) string {
	switch source {
	case models.SourceTicketmaster:
		return PrefixTicketmaster
	case models.SourceEventbrite:
		return PrefixEventbrite
	}
	return ""
}

// MakeID builds the global id <prefix>_<sourceId>
func MakeID(source models.Source, sourceID string) string {
	return Prefix(source) + "_" + sourceID
}

// ParseID strips the provider prefix from a global id and returns the (source, sourceId) pair
func ParseID(id string) (models.Source, string, bool) {
	prefix, sourceID, found := strings.Cut(id, "_")
	if !found || sourceID == "" {
		return "", "", false
	}
	source, ok := ParseSource(prefix)
	if !ok {
		return "", "", false
	}
	return source, sourceID, true
}

// ParseSource resolves a source name or its short alias, case-insensitively
func ParseSource(raw string) (models.Source, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(models.SourceTicketmaster), PrefixTicketmaster:
		return models.SourceTicketmaster, true
	case string(models.SourceEventbrite), PrefixEventbrite:
		return models.SourceEventbrite, true
	}
	return "", false
}

// SourceID returns the upstream id for a detail lookup. Callers may pass either the
// bare upstream id or the global id of the same source.
func SourceID(source models.Source, id string) string {
	if s, sourceID, ok := ParseID(id); ok && s == source {
		return sourceID
	}
	return id
}
