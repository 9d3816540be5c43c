package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db/migrations"
)

// migrate applies the embedded SQL migrations and exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		log.Fatalf("migrate: only postgres is supported, got %q", cfg.DBDriver)
	}

	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if err := migrations.Apply(ctx, sqlDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")
}
