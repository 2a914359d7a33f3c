package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/crepmaster/pharmapp/internal/infrastructure/database"
	"github.com/crepmaster/pharmapp/pkg/config"
	"github.com/crepmaster/pharmapp/pkg/db"
	"github.com/crepmaster/pharmapp/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		fmt.Println("Usage: migrate [command]")
		fmt.Println("Commands: up, down, status, redo")
		os.Exit(1)
	}
	command := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Info().Str("command", command).Msg("Running migrations")
	if err := database.RunMigrations(ctx, db.GetDBDSN(&cfg.Database), command); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("Migration finished")
}
