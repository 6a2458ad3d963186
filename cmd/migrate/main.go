package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice/internal/db"
	"github.com/noah-isme/backoffice/internal/obs"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-steps N] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	switch flag.Arg(0) {
	case "up":
		if err := db.MigrateUp(dsn); err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
		logger.Info().Msg("schema up to date")
	case "down":
		if err := db.MigrateDown(dsn, *steps); err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
		logger.Info().Int("steps", *steps).Msg("rolled back")
	case "version":
		printVersion(logger, dsn)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printVersion(logger zerolog.Logger, dsn string) {
	m, err := db.NewMigrator(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrator")
	}
	defer func() { _, _ = m.Close() }()
	version, dirty, err := m.Version()
	if err != nil {
		logger.Fatal().Err(err).Msg("read version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
}
