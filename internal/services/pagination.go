package services

import (
	"context"
	"fmt"
	"log"

	"ma-zone/internal/models"
)

// DefaultPageCap bounds the page loop when the caller supplies no cap
const DefaultPageCap = 5

// Page is one normalized page of an upstream listing
type Page struct {
	Number  int
	Events  []models.Event
	HasMore bool
}

// PageFetcher fetches the given 1-based page
type PageFetcher func(ctx context.Context, page int) (Page, error)

// PageSource yields pages one at a time. ok is false once the source is exhausted.
type PageSource interface {
	Next(ctx context.Context) (page Page, ok bool, err error)
}

// PageSequence is a lazy, finite sequence of pages starting at page 1.
// Whether a next page exists is only known from the previous answer, so
// pages are fetched strictly one after the other.
type PageSequence struct {
	fetch PageFetcher
	next  int
	done  bool
}

func NewPageSequence(fetch PageFetcher) *PageSequence {
	return &PageSequence{fetch: fetch, next: 1}
}

// Next fetches the following page. A failed fetch ends the sequence.
func (s *PageSequence) Next(ctx context.Context) (Page, bool, error) {
	if s.done {
		return Page{}, false, nil
	}

	page, err := s.fetch(ctx, s.next)
	if err != nil {
		s.done = true
		return Page{}, false, err
	}

	page.Number = s.next
	s.next++
	if !page.HasMore {
		s.done = true
	}
	return page, true, nil
}

// Reset rewinds the sequence to page 1
func (s *PageSequence) Reset() {
	s.next = 1
	s.done = false
}

// DrainPages consumes src until it is exhausted or pageCap pages were fetched.
// On a page failure the loop stops and the events of the earlier pages are
// returned together with the error.
func DrainPages(ctx context.Context, src PageSource, pageCap int) ([]models.Event, models.PaginationMeta, error) {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}

	meta := models.PaginationMeta{PageCap: pageCap}
	events := []models.Event{}

	for meta.PagesFetched < pageCap {
		if err := ctx.Err(); err != nil {
			return events, meta, err
		}

		meta.PagesRequested++
		page, ok, err := src.Next(ctx)
		if err != nil {
			log.Printf("Error fetching page %d, keeping %d events from earlier pages: %v", meta.PagesRequested, len(events), err)
			return events, meta, fmt.Errorf("page %d: %w", meta.PagesRequested, err)
		}
		if !ok {
			meta.PagesRequested--
			meta.HasMore = false
			break
		}

		meta.PagesFetched++
		meta.HasMore = page.HasMore
		events = append(events, page.Events...)
		if !page.HasMore {
			break
		}
	}

	return events, meta, nil
}
