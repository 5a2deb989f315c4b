package browse

import (
	"regexp"
	"strconv"
	"strings"

	"ma-zone/internal/models"
)

const (
	PriceUnknownLabel = "Renseignement au pres de la billetterie"
	PriceFreeLabel    = "Gratuit"
)

var (
	isoDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// FormatFrenchDateTime renders 2025-06-01 / 20:30 as "01-06-2025 à 20:30:00".
// Values in any other shape are shown as given.
func FormatFrenchDateTime(date, clock string) string {
	if date == "" && clock == "" {
		return ""
	}

	formattedDate := date
	if isoDate.MatchString(date) {
		parts := strings.Split(date, "-")
		formattedDate = parts[2] + "-" + parts[1] + "-" + parts[0]
	}

	formattedTime := clock
	if clockTime.MatchString(clock) {
		formattedTime = clock + ":00"
	}

	if formattedDate != "" && formattedTime != "" {
		return formattedDate + " à " + formattedTime
	}
	if formattedDate != "" {
		return formattedDate
	}
	return formattedTime
}

// PriceLabel renders the price of a list event
func PriceLabel(price *float64) string {
	switch {
	case price == nil:
		return PriceUnknownLabel
	case *price == 0:
		return PriceFreeLabel
	}
	return strconv.FormatFloat(*price, 'f', -1, 64) + " EUR"
}

// Place joins the non-empty address and city
func Place(e models.Event) string {
	var parts []string
	for _, p := range []string{e.Address, e.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
