package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/bootstrap"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/db"
	"github.com/hackgods/hospital-scheduling/internal/logging"
)

func main() {
	fakePatients := flag.Int("fake-patients", 0, "number of generated patients to add on a fresh database")
	skipSchema := flag.Bool("skip-schema", false, "do not create tables before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config load error")
	}
	if cfg.StorageDriver != config.StoragePostgres {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Str("storage", cfg.StorageDriver).Msg("seed only runs against postgres")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx)

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if !*skipSchema {
		if err := db.ApplySchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply schema")
		}
		logger.Info().Msg("schema applied")
	}

	res, err := bootstrap.Run(ctx, appointment.NewPgRepository(pool), bootstrap.Options{
		Today:        time.Now().In(cfg.Location),
		WindowDays:   cfg.HorizonDays,
		FakePatients: *fakePatients,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}

	logger.Info().
		Int("departments", res.Departments).
		Int("doctors", res.Doctors).
		Int("patients", res.Patients).
		Msg("seed complete")
}
