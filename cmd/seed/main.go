package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/airport-service/internal/config"
	"github.com/iliyamo/airport-service/internal/database"
	"github.com/iliyamo/airport-service/internal/seed"
)

func main() {
	file := flag.String("file", "fixtures.yaml", "YAML fixture with reference data")
	migrate := flag.Bool("migrate", false, "apply the schema before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg := config.Load()

	fx, err := seed.LoadFile(*file)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *migrate || cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	sum, err := seed.Apply(ctx, db, fx)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: inserted %s", sum)
}
