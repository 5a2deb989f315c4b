package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ma-zone/internal/config"
	"ma-zone/internal/migrations"
)

func main() {
	var command = flag.String("command", "up", "Migration command: up, status")
	flag.Parse()

	cfg := config.Load()

	connStr := cfg.CacheDSN
	if cfg.CacheDriver == "sqlite" {
		connStr = fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", cfg.CacheDSN)
	}

	db, err := sql.Open(cfg.CacheDriver, connStr)
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to cache database: %v", err)
	}

	migrator := migrations.NewMigrator(db, cfg.CacheDriver)

	switch *command {
	case "up":
		log.Println("Running migrations...")
		if err := migrator.RunMigrations(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("✓ Migrations completed successfully")

	case "status":
		log.Println("Checking migration status...")
		if err := migrator.Status(); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}

	default:
		log.Printf("Unknown command: %s", *command)
		log.Println("Available commands: up, status")
		os.Exit(1)
	}
}
