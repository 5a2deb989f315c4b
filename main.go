package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ma-zone/internal/config"
	"ma-zone/internal/detailcache"
	"ma-zone/internal/favorites"
	"ma-zone/internal/handlers"
	"ma-zone/internal/kafka"
	"ma-zone/internal/kvcache"
	"ma-zone/internal/metrics"
	"ma-zone/internal/middleware"
	"ma-zone/internal/services"
	"ma-zone/internal/warmer"
)

// providers holds the clients of the configured providers. Unconfigured
// providers stay nil interfaces.
type providers struct {
	tmSearcher services.TicketmasterSearcher
	tmFetcher  services.TicketmasterFetcher
	tmRaw      handlers.RawSearcher
	ebLister   services.EventbriteLister
	ebFetcher  services.EventbriteFetcher
}

func main() {
	checkProviders := flag.Bool("check-providers", false, "Run one aggregate query with the default parameters and exit")
	flag.Parse()

	cfg := config.Load()
	log.Printf("Loaded config: server=%s:%s cache=%s ticketmaster=%t eventbrite=%t",
		cfg.ServerHost, cfg.ServerPort, cfg.CacheDriver, cfg.TicketmasterConfigured(), cfg.EventbriteConfigured())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := services.NewHTTPClient(cfg.HTTPTimeout)
	p := newProviders(cfg, httpClient)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	aggregator := services.NewAggregator(p.tmSearcher, p.ebLister, services.AggregateQuery{
		CountryCode: cfg.DefaultCountryCode,
		LatLong:     cfg.DefaultLatLong,
		Radius:      cfg.DefaultRadius,
		Size:        cfg.DefaultSize,
		Locale:      cfg.DefaultLocale,
		PageCap:     cfg.DefaultPageCap,
	}, recorder)
	resolver := services.NewDetailResolver(p.tmFetcher, p.ebFetcher)

	if *checkProviders {
		runProviderCheck(ctx, aggregator)
		return
	}

	durable, err := kvcache.OpenSQL(cfg.CacheDriver, cfg.CacheDSN)
	if err != nil {
		log.Fatalf("Failed to initialize durable cache: %v", err)
	}
	defer durable.Close()

	cache := detailcache.New(nil, durable, resolver, recorder)
	favoritesStore := favorites.NewStore(durable)

	var wg sync.WaitGroup

	if cfg.CacheDriver == kvcache.DriverPostgres {
		listener, err := kvcache.NewPGListener(cfg.CacheDSN, durable)
		if err != nil {
			log.Printf("Cache change listener unavailable: %v", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				listener.Run(ctx)
			}()
		}
	}

	if cfg.KafkaURL != "" && cfg.KafkaChangesTopic != "" {
		log.Printf("Starting cache change feed on topic %s at %s", cfg.KafkaChangesTopic, cfg.KafkaURL)
		feed := kafka.NewChangeFeed(cfg.KafkaURL, cfg.KafkaChangesTopic, durable)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer feed.Close()
			feed.Run(ctx)
		}()
	} else {
		log.Println("Kafka URL not configured, skipping cache change feed")
	}

	var warmProcessor *warmer.Processor
	if cfg.SQSWarmQueueURL != "" {
		sqsClient, err := newSQSClient(ctx, cfg)
		if err != nil {
			log.Fatalf("unable to load AWS SDK config, %v", err)
		}
		log.Printf("Starting cache warmer for queue: %s", cfg.SQSWarmQueueURL)
		warmProcessor = warmer.NewProcessor(sqsClient, cfg.SQSWarmQueueURL, aggregator, cache)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := warmProcessor.ProcessMessages(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Error processing warm jobs: %v", err)
			}
		}()
	} else {
		log.Println("Warm queue URL not configured, skipping cache warmer setup")
	}

	hub := handlers.NewHub()
	go hub.Run()
	defer hub.Stop()

	favoritesHandler := handlers.NewFavoritesHandler(favoritesStore, hub)
	favoritesHandler.Watch(ctx)

	eventsHandler := handlers.NewEventsHandler(aggregator, resolver, p.tmRaw, cache)
	healthHandler := handlers.NewHealthHandler()
	healthHandler.AddReadinessCheck("cache", durable.Ping)

	router := mux.NewRouter()
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.LoggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/events", eventsHandler.Events).Methods("GET")
	api.HandleFunc("/events/aggregate", eventsHandler.Aggregate).Methods("GET")
	api.HandleFunc("/events/{source}/{id}", eventsHandler.Detail).Methods("GET")
	api.HandleFunc("/favorites", favoritesHandler.List).Methods("GET")
	api.HandleFunc("/favorites/stream", favoritesHandler.Stream).Methods("GET")
	api.HandleFunc("/favorites/{id}/toggle", favoritesHandler.Toggle).Methods("POST", "OPTIONS")
	if warmProcessor != nil {
		api.HandleFunc("/cache/warm", handlers.NewWarmHandler(warmProcessor).Warm).Methods("POST", "OPTIONS")
	}

	// Short aliases kept for older clients
	router.HandleFunc("/aggregate", eventsHandler.Aggregate).Methods("GET")
	router.HandleFunc("/detail/{source}/{id}", eventsHandler.Detail).Methods("GET")

	// K8s probe endpoints
	router.HandleFunc("/healthz", healthHandler.HandleHealth).Methods("GET")
	router.HandleFunc("/readyz", healthHandler.HandleReadiness).Methods("GET")
	router.HandleFunc("/livez", healthHandler.HandleLiveness).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	serverAddr := cfg.ServerHost + ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(hub.Stop)

	go func() {
		log.Printf("Starting HTTP server on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	eventsHandler.Wait()

	wg.Wait()
	log.Println("Server stopped")
}

func newProviders(cfg config.Config, httpClient *http.Client) providers {
	var p providers

	if cfg.TicketmasterConfigured() {
		tm := services.NewTicketmasterClient(cfg.TicketmasterBaseURL, cfg.TicketmasterAPIKey, httpClient)
		tm.Locale = cfg.DefaultLocale
		p.tmSearcher, p.tmFetcher, p.tmRaw = tm, tm, tm
	} else {
		log.Println("Ticketmaster API key not configured, provider disabled")
	}

	if cfg.EventbriteConfigured() {
		eb := services.NewEventbriteClient(cfg.EventbriteBaseURL, cfg.EventbriteAPIToken, cfg.EventbritePageSize, httpClient)
		p.ebLister, p.ebFetcher = eb, eb
	} else {
		log.Println("Eventbrite API token not configured, provider disabled")
	}

	return p
}

// newSQSClient loads AWS configuration with credentials from environment variables
func newSQSClient(ctx context.Context, cfg config.Config) (*sqs.Client, error) {
	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		log.Println("Using AWS credentials from environment variables")
		awsOptions = append(awsOptions, awsconfig.WithCredentialsProvider(
			aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AWSAccessKeyID,
					SecretAccessKey: cfg.AWSSecretAccessKey,
				}, nil
			}),
		))
	} else {
		log.Println("No AWS credentials provided in environment variables, falling back to default credentials")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, err
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWSEndpoint != "" {
			log.Printf("Using LocalStack endpoint for AWS services: %s", cfg.AWSEndpoint)
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	}), nil
}

// runProviderCheck runs one aggregate query and logs what each provider returned
func runProviderCheck(ctx context.Context, aggregator *services.Aggregator) {
	result, err := aggregator.Aggregate(ctx, services.AggregateQuery{})
	if err != nil {
		log.Fatalf("Aggregate failed: %v", err)
	}

	log.Printf("Aggregate returned %d events (ticketmaster=%d eventbrite=%d)",
		result.Counts.Total, result.Counts.Ticketmaster, result.Counts.Eventbrite)
	for source, providerErr := range result.Errors {
		log.Printf("%s failed: %s (status %d) %s", source, providerErr.Message, providerErr.Status, providerErr.Details)
	}
	if result.PaginationMeta != nil {
		log.Printf("Eventbrite pages: requested=%d fetched=%d hasMore=%t",
			result.PaginationMeta.PagesRequested, result.PaginationMeta.PagesFetched, result.PaginationMeta.HasMore)
	}
}
