package normalize

import (
	"encoding/json"

	"ma-zone/internal/models"
)

// Ticketmaster maps a discovery API event into a list-level Event
func Ticketmaster(raw models.RawTicketmasterItem) models.Event {
	date, clock := tmStart(raw)
	venue := tmVenue(raw)

	e := models.Event{
		ID:          MakeID(models.SourceTicketmaster, raw.ID),
		Source:      models.SourceTicketmaster,
		SourceID:    raw.ID,
		Title:       raw.Name,
		Description: firstNonEmpty(raw.Info, raw.PleaseNote),
		Image:       BestImage(raw.Images),
		URL:         raw.URL,
		Date:        date,
		Time:        clock,
		Category:    tmCategory(raw),
	}

	if venue != nil {
		e.LocationName = venue.Name
		if venue.Address != nil {
			e.Address = venue.Address.Line1
		}
		if venue.City != nil {
			e.City = venue.City.Name
		}
		if venue.Location != nil {
			e.Latitude = Coord(venue.Location.Latitude)
			e.Longitude = Coord(venue.Location.Longitude)
		}
	}

	if len(raw.PriceRanges) > 0 && raw.PriceRanges[0].Min != nil {
		e.Price = price(*raw.PriceRanges[0].Min)
	}

	return e
}

// TicketmasterDetail maps a discovery API event into the provider-shaped detail view
func TicketmasterDetail(raw models.RawTicketmasterItem) models.EventDetail {
	date, clock := tmStart(raw)

	d := models.EventDetail{
		Source:          models.SourceTicketmaster,
		SourceID:        raw.ID,
		Title:           raw.Name,
		Description:     firstNonEmpty(raw.Info, raw.PleaseNote),
		URL:             raw.URL,
		Images:          SortedImages(raw.Images),
		Date:            date,
		Time:            clock,
		Venue:           rawFirst(rawField(raw.Field("_embedded"), "venues")),
		Classifications: rawList(raw.Field("classifications")),
		PriceRanges:     rawList(raw.Field("priceRanges")),
		TicketLimit:     raw.Field("ticketLimit"),
		AgeRestrictions: raw.Field("ageRestrictions"),
		Accessibility:   raw.Field("accessibility"),
		Promoter:        raw.Field("promoter"),
		Seatmap:         raw.Field("seatmap"),
	}

	if raw.Dates != nil {
		d.Timezone = raw.Dates.Timezone
		if raw.Dates.Status != nil {
			d.Status = raw.Dates.Status.Code
		}
	}

	return d
}

func tmStart(raw models.RawTicketmasterItem) (string, string) {
	if raw.Dates == nil || raw.Dates.Start == nil {
		return "", ""
	}
	return raw.Dates.Start.LocalDate, Minutes(raw.Dates.Start.LocalTime)
}

func tmVenue(raw models.RawTicketmasterItem) *models.TicketmasterVenue {
	if raw.Embedded == nil || len(raw.Embedded.Venues) == 0 {
		return nil
	}
	return &raw.Embedded.Venues[0]
}

func tmCategory(raw models.RawTicketmasterItem) string {
	if len(raw.Classifications) == 0 || raw.Classifications[0].Segment == nil {
		return ""
	}
	return raw.Classifications[0].Segment.Name
}

func rawFirst(list json.RawMessage) json.RawMessage {
	items := rawList(list)
	if len(items) == 0 || string(items[0]) == "null" {
		return nil
	}
	return items[0]
}
