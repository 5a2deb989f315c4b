package normalize

import (
	"ma-zone/internal/models"
)

// Eventbrite maps an Eventbrite v3 event into a list-level Event
func Eventbrite(raw models.RawEventbriteItem) models.Event {
	date, clock := ebStart(raw)

	e := models.Event{
		ID:          MakeID(models.SourceEventbrite, raw.ID),
		Source:      models.SourceEventbrite,
		SourceID:    raw.ID,
		Title:       ebText(raw.Name),
		Description: firstNonEmpty(raw.Summary, ebText(raw.Description)),
		Image:       ebLogo(raw),
		URL:         raw.URL,
		Date:        date,
		Time:        clock,
		Price:       EventbritePrice(raw),
	}

	if raw.Venue != nil {
		e.LocationName = raw.Venue.Name
		e.Latitude = Coord(raw.Venue.Latitude)
		e.Longitude = Coord(raw.Venue.Longitude)
		if addr := raw.Venue.Address; addr != nil {
			e.Address = firstNonEmpty(addr.LocalizedAddressDisplay, addr.Address1)
			e.City = addr.City
		}
	}

	if raw.Category != nil {
		e.Category = raw.Category.Name
	}

	return e
}

// EventbriteDetail maps an Eventbrite v3 event into the provider-shaped detail view
func EventbriteDetail(raw models.RawEventbriteItem) models.EventDetail {
	date, clock := ebStart(raw)

	d := models.EventDetail{
		Source:             models.SourceEventbrite,
		SourceID:           raw.ID,
		Title:              ebText(raw.Name),
		Description:        ebText(raw.Description),
		URL:                raw.URL,
		Images:             []string{},
		Date:               date,
		Time:               clock,
		Status:             raw.Status,
		IsFree:             raw.IsFree,
		Capacity:           raw.Capacity,
		Venue:              raw.Field("venue"),
		Organizer:          raw.Field("organizer"),
		Category:           raw.Field("category"),
		TicketAvailability: raw.Field("ticket_availability"),
	}

	if logo := ebLogo(raw); logo != "" {
		d.Images = []string{logo}
	}
	if raw.Start != nil {
		d.Timezone = raw.Start.Timezone
	}
	if d.Venue == nil {
		d.Venue = marshalOrNil(raw.Venue)
	}

	return d
}

// EventbritePrice derives the list price: the free flag wins, then the first
// ticket class cost (minor units), otherwise unknown.
func EventbritePrice(raw models.RawEventbriteItem) *float64 {
	if raw.IsFree != nil && *raw.IsFree {
		return price(0)
	}
	if len(raw.TicketClasses) > 0 {
		cost := raw.TicketClasses[0].Cost
		if cost != nil && cost.Value != nil {
			return price(float64(*cost.Value) / 100)
		}
	}
	return nil
}

func ebStart(raw models.RawEventbriteItem) (string, string) {
	if raw.Start == nil {
		return "", ""
	}
	return SplitLocal(raw.Start.Local)
}

func ebText(t *models.EventbriteText) string {
	if t == nil {
		return ""
	}
	return t.Text
}

func ebLogo(raw models.RawEventbriteItem) string {
	if raw.Logo == nil {
		return ""
	}
	if raw.Logo.Original != nil && raw.Logo.Original.URL != "" {
		return raw.Logo.Original.URL
	}
	return raw.Logo.URL
}
