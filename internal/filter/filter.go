// Package filter narrows a normalized event list with the list view's search controls.
package filter

import (
	"sort"
	"strings"

	"ma-zone/internal/models"
)

// CategoryAll is the category sentinel that disables the category clause
const CategoryAll = "ALL"

// Criteria are the user-selected predicates. Zero values disable a clause.
type Criteria struct {
	Query    string
	Category string
	FreeOnly bool
	DateFrom string // YYYY-MM-DD
	DateTo   string // YYYY-MM-DD
}

// Apply returns the events matching every clause, in input order.
// The input slice and its events are never modified.
func Apply(events []models.Event, c Criteria) []models.Event {
	q := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if match(e, q, c) {
			out = append(out, e)
		}
	}
	return out
}

// Match reports whether a single event passes every clause
func Match(e models.Event, c Criteria) bool {
	return match(e, strings.ToLower(strings.TrimSpace(c.Query)), c)
}

// match evaluates the clauses in order and stops at the first one that fails
func match(e models.Event, q string, c Criteria) bool {
	if q != "" && !strings.Contains(haystack(e), q) {
		return false
	}

	if c.Category != "" && !strings.EqualFold(c.Category, CategoryAll) && e.Category != c.Category {
		return false
	}

	// Unknown prices stay visible under "free only"; only a positive price is excluded.
	if c.FreeOnly && e.Price != nil && *e.Price > 0 {
		return false
	}

	if c.DateFrom != "" && e.Date != "" && e.Date < c.DateFrom {
		return false
	}
	if c.DateTo != "" && e.Date != "" && e.Date > c.DateTo {
		return false
	}

	return true
}

func haystack(e models.Event) string {
	parts := make([]string, 0, 5)
	for _, s := range []string{e.Title, e.LocationName, e.City, e.Category, e.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Categories returns CategoryAll followed by the sorted distinct non-empty categories
func Categories(events []models.Event) []string {
	seen := map[string]struct{}{}
	values := []string{}
	for _, e := range events {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		values = append(values, e.Category)
	}
	sort.Strings(values)
	return append([]string{CategoryAll}, values...)
}
