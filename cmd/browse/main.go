package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ma-zone/internal/browse"
	"ma-zone/internal/detailcache"
	"ma-zone/internal/filter"
	"ma-zone/internal/kvcache"
	"ma-zone/internal/models"
	"ma-zone/internal/normalize"
	"ma-zone/internal/services"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Base URL of the ma-zone API")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	cachePath := flag.String("cache", defaultCachePath(), "Local durable cache file (empty disables it)")

	countryCode := flag.String("country", "", "Country code, ALL for no country filter")
	latlong := flag.String("latlong", "", "Search point as lat,long")
	radius := flag.String("radius", "", "Search radius")
	size := flag.String("size", "", "Result size")
	locale := flag.String("locale", "", "Locale")
	pageCap := flag.Int("page-cap", 0, "Maximum Eventbrite pages")

	query := flag.String("q", "", "Free-text filter")
	category := flag.String("category", filter.CategoryAll, "Category filter")
	freeOnly := flag.Bool("free", false, "Only free events or events with unknown price")
	dateFrom := flag.String("from", "", "Earliest date, YYYY-MM-DD")
	dateTo := flag.String("to", "", "Latest date, YYYY-MM-DD")
	categories := flag.Bool("categories", false, "List the categories of the result")

	detail := flag.String("detail", "", "Show the detail of an event id (tm_..., eb_...)")
	noRefresh := flag.Bool("no-refresh", false, "Show the cached detail only")
	toggle := flag.String("toggle", "", "Toggle an event id in the favorites")
	showFavorites := flag.Bool("favorites", false, "List favorite event ids")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := browse.NewClient(strings.TrimRight(*apiURL, "/"), *timeout)

	switch {
	case *toggle != "":
		favorite, err := client.ToggleFavorite(ctx, *toggle)
		if err != nil {
			log.Fatalf("Failed to toggle favorite: %v", err)
		}
		fmt.Printf("%s favorite: %t\n", *toggle, favorite)
		return

	case *showFavorites:
		ids, err := client.Favorites(ctx)
		if err != nil {
			log.Fatalf("Failed to list favorites: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	var durable kvcache.KeyValueCache
	if *cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(*cachePath), 0o755); err != nil {
			log.Printf("Failed to create cache directory: %v", err)
		}
		store, err := kvcache.OpenSQL(kvcache.DriverSQLite, *cachePath)
		if err != nil {
			log.Printf("Local cache unavailable, continuing without it: %v", err)
		} else {
			defer store.Close()
			durable = store
		}
	}

	session := browse.NewSession(client, kvcache.NewMemory(), durable)

	if *detail != "" && *noRefresh {
		showDetail(ctx, session, *detail, true)
		return
	}

	result, err := session.Load(ctx, services.AggregateQuery{
		CountryCode: *countryCode,
		LatLong:     *latlong,
		Radius:      *radius,
		Size:        *size,
		Locale:      *locale,
		PageCap:     *pageCap,
	})
	if err != nil {
		log.Fatalf("Failed to load events: %v", err)
	}
	for source, providerErr := range result.Errors {
		log.Printf("%s failed: %s (%d) %s", source, providerErr.Message, providerErr.Status, providerErr.Details)
	}

	if *categories {
		for _, c := range session.Categories() {
			fmt.Println(c)
		}
		return
	}

	if *detail != "" {
		if _, err := session.Select(ctx, *detail); err != nil {
			log.Printf("%v, loading without a cached seed", err)
		}
		showDetail(ctx, session, *detail, false)
		return
	}

	events := session.Events(filter.Criteria{
		Query:    *query,
		Category: *category,
		FreeOnly: *freeOnly,
		DateFrom: *dateFrom,
		DateTo:   *dateTo,
	})
	fmt.Printf("%d events (ticketmaster=%d eventbrite=%d)\n\n",
		len(events), result.Counts.Ticketmaster, result.Counts.Eventbrite)
	for _, e := range events {
		printEvent(e)
	}
}

func showDetail(ctx context.Context, session *browse.Session, id string, noRefresh bool) {
	source, sourceID, ok := normalize.ParseID(id)
	if !ok {
		log.Fatalf("Evenement introuvable: %s", id)
	}

	err := session.Detail(ctx, string(source), sourceID, detailcache.LoadOptions{NoRefresh: noRefresh}, func(v models.DetailView) {
		switch v.Kind {
		case models.DetailKindCached:
			fmt.Println("[cache]")
			printEvent(*v.Cached)
		case models.DetailKindFull:
			fmt.Println("[live]")
			printDetail(v.Full.Detail)
		}
	})

	switch {
	case err == nil:
	case browse.IsNotFound(err):
		log.Fatalf("Evenement introuvable: %v", err)
	case errors.Is(err, detailcache.ErrNoCachedDetail):
		log.Fatal(err)
	default:
		log.Fatalf("Impossible de charger les details: %v", err)
	}
}

func printEvent(e models.Event) {
	fmt.Printf("%s  %s\n", e.ID, e.Title)
	if when := browse.FormatFrenchDateTime(e.Date, e.Time); when != "" {
		fmt.Printf("    %s\n", when)
	}
	if e.LocationName != "" {
		fmt.Printf("    %s\n", e.LocationName)
	}
	if place := browse.Place(e); place != "" {
		fmt.Printf("    %s\n", place)
	}
	fmt.Printf("    %s\n\n", browse.PriceLabel(e.Price))
}

func printDetail(d models.EventDetail) {
	fmt.Printf("%s_%s  %s\n", normalize.Prefix(d.Source), d.SourceID, d.Title)
	if when := browse.FormatFrenchDateTime(d.Date, d.Time); when != "" {
		fmt.Printf("    %s %s\n", when, d.Timezone)
	}
	if d.Status != "" {
		fmt.Printf("    status: %s\n", d.Status)
	}
	if d.IsFree != nil && *d.IsFree {
		fmt.Printf("    %s\n", browse.PriceFreeLabel)
	}
	if d.URL != "" {
		fmt.Printf("    %s\n", d.URL)
	}
	if d.Description != "" {
		fmt.Printf("\n%s\n", d.Description)
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ma-zone", "browse.sqlite")
}
