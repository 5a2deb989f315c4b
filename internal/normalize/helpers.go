// Package normalize maps provider payloads into the unified event schema.
// Every function here is pure and total: missing upstream fields turn into
// empty strings, zero coordinates or nil prices, never into a panic.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"ma-zone/internal/models"
)

// BestImage keeps the candidates with a URL, orders them by declared width
// (widest first) and returns the first URL, or "" when none qualifies.
func BestImage(images []models.RawImage) string {
	sorted := SortedImages(images)
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}

// SortedImages returns the non-empty image URLs ordered by width, widest first
func SortedImages(images []models.RawImage) []string {
	candidates := make([]models.RawImage, 0, len(images))
	for _, img := range images {
		if strings.TrimSpace(img.URL) != "" {
			candidates = append(candidates, img)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Width > candidates[j].Width
	})
	urls := make([]string, 0, len(candidates))
	for _, img := range candidates {
		urls = append(urls, img.URL)
	}
	return urls
}

// SplitLocal splits a combined local timestamp (2026-03-12T20:00:00) into a date
// and a minute-precision time.
func SplitLocal(local string) (date, clock string) {
	date, clock, _ = strings.Cut(local, "T")
	return date, Minutes(clock)
}

// Minutes truncates HH:MM:SS to HH:MM
func Minutes(clock string) string {
	if len(clock) > 5 {
		return clock[:5]
	}
	return clock
}

// Coord parses a coordinate sent as a string, 0 when missing or malformed
func Coord(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func price(v float64) *float64 {
	return &v
}

// rawList splits a JSON array into its elements. Anything else yields nil.
func rawList(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// rawField extracts one field of a JSON object. Anything else yields nil.
func rawField(raw json.RawMessage, name string) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	v, ok := obj[name]
	if !ok || string(v) == "null" {
		return nil
	}
	return v
}

// marshalOrNil encodes a typed sub-object for passthrough, nil for nil input
func marshalOrNil(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}
