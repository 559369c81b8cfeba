// Command migrate creates the taskhub schema against the configured
// database. Safe to run repeatedly.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/store"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Error("migrate requires the postgres driver", "driver", cfg.Database.Driver)
		os.Exit(1)
	}

	pg, err := store.OpenPostgres(cfg.Postgres())
	if err != nil {
		log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Migrate(ctx); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migration complete")
}
