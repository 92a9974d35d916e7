package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"truthordare/config"
	"truthordare/logger"
	"truthordare/migrations"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	version := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Init(cfg.Env, cfg.LogLevel)

	url := cfg.MigrationURL()
	switch {
	case *version:
		v, dirty, err := migrations.Version(url)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read schema version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
	case *down > 0:
		if err := migrations.Down(url, *down); err != nil {
			log.Fatal().Err(err).Msg("rollback failed")
		}
		log.Info().Int("steps", *down).Msg("database migrations rolled back")
	default:
		if err := migrations.Up(url); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("database migrations applied")
	}
}
