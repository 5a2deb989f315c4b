package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerHost string
	ServerPort string

	TicketmasterAPIKey  string
	TicketmasterBaseURL string
	EventbriteAPIToken  string
	EventbriteBaseURL   string
	EventbritePageSize  int
	HTTPTimeout         time.Duration

	DefaultCountryCode string
	DefaultLatLong     string
	DefaultRadius      string
	DefaultSize        string
	DefaultLocale      string
	DefaultPageCap     int

	CacheDriver string
	CacheDSN    string

	KafkaURL          string
	KafkaChangesTopic string

	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SQSWarmQueueURL    string

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// LoadEnv loads environment variables from .env files
func LoadEnv() {
	envPaths := []string{
		".env",    // Current directory
		"../.env", // One level up
		filepath.Join(os.Getenv("HOME"), ".config/ma-zone/.env"),
	}

	for _, path := range envPaths {
		err := godotenv.Load(path)
		if err == nil {
			log.Printf("Loaded environment variables from %s", path)
			return
		}
	}

	log.Println("No .env file found, using environment variables")
}

func Load() Config {
	LoadEnv()

	log.Println("Loading configuration from environment variables")
	return Config{
		ServerHost: getEnv("SERVER_HOST", ""),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		// The key used to be exposed to the browser under its NEXT_PUBLIC_ name; both are honoured.
		TicketmasterAPIKey:  getSecret("TICKETMASTER_API_KEY", getSecret("NEXT_PUBLIC_TICKETMASTER_API_KEY", "")),
		TicketmasterBaseURL: getEnv("TICKETMASTER_BASE_URL", "https://app.ticketmaster.com/discovery/v2"),
		EventbriteAPIToken:  getSecret("EVENTBRITE_API_TOKEN", ""),
		EventbriteBaseURL:   getEnv("EVENTBRITE_BASE_URL", "https://www.eventbriteapi.com/v3"),
		EventbritePageSize:  getEnvInt("EVENTBRITE_PAGE_SIZE", 50),
		HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "FR"),
		DefaultLatLong:     getEnv("DEFAULT_LATLONG", "48.8566,2.3522"),
		DefaultRadius:      getEnv("DEFAULT_RADIUS", "200"),
		DefaultSize:        getEnv("DEFAULT_SIZE", "200"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "fr-fr"),
		DefaultPageCap:     getEnvInt("DEFAULT_PAGE_CAP", 5),

		CacheDriver: getEnv("CACHE_DRIVER", "sqlite"),
		CacheDSN:    getEnv("CACHE_DSN", "ma-zone.sqlite"),

		KafkaURL:          getEnv("KAFKA_URL", ""),
		KafkaChangesTopic: getEnv("KAFKA_CHANGES_TOPIC", "ma-zone.kv-changes"),

		AWSRegion:          getEnv("AWS_REGION", "eu-west-3"),
		AWSEndpoint:        getEnv("AWS_LOCAL_ENDPOINT_URL", ""),
		AWSAccessKeyID:     getSecret("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getSecret("AWS_SECRET_ACCESS_KEY", ""),
		SQSWarmQueueURL:    getEnv("AWS_SQS_WARM_QUEUE_URL", ""),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvList("ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		AllowedHeaders: getEnvList("ALLOWED_HEADERS", []string{"Content-Type", "Accept"}),
		MaxAge:         getEnvInt("CORS_MAX_AGE", 600),
	}
}

// TicketmasterConfigured reports whether a Ticketmaster API key is available
func (c Config) TicketmasterConfigured() bool {
	return c.TicketmasterAPIKey != ""
}

// EventbriteConfigured reports whether an Eventbrite token is available
func (c Config) EventbriteConfigured() bool {
	return c.EventbriteAPIToken != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		log.Printf("Loaded env var %s: %s", key, value)
		return value
	}
	log.Printf("Env var %s not set, using fallback: %s", key, fallback)
	return fallback
}

// getSecret behaves like getEnv but never logs the value
func getSecret(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		log.Printf("Loaded secret env var %s", key)
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using fallback: %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, fallback.String())
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using fallback: %s", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnvList(key string, fallback []string) []string {
	raw := getEnv(key, strings.Join(fallback, ","))
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
