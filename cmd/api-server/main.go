package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/api"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/bootstrap"
	"github.com/hackgods/hospital-scheduling/internal/cache"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/db"
	"github.com/hackgods/hospital-scheduling/internal/logging"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("storage", cfg.StorageDriver).
		Str("timezone", cfg.Location.String()).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCtx = logger.WithContext(rootCtx)

	var (
		repo     appointment.Repository
		pgPinger api.Pinger
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()
		logger.Info().Msg("connected to Postgres")

		repo = appointment.NewPgRepository(pgPool)
		pgPinger = pgPool
		startPoolStats(rootCtx, pgPool)

	case config.StorageMemory:
		mem := appointment.NewMemRepository()
		if _, err := bootstrap.Run(rootCtx, mem, bootstrap.Options{Today: time.Now().In(cfg.Location), WindowDays: cfg.HorizonDays}); err != nil {
			logger.Fatal().Err(err).Msg("seed in-memory store")
		}
		repo = mem
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
	}

	if cfg.DoctorCacheTTL > 0 {
		repo = cache.NewDoctorCache(repo, cfg.DoctorCacheTTL)
	}

	var (
		locker      redisclient.Locker
		redisPinger api.Pinger
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

		locker = redisclient.NewRedisDayLocker(rdb, cfg.LockTTL, cfg.LockWait)
		redisPinger = redisPing(rdb)
	} else {
		locker = redisclient.NewLocalDayLocker()
		logger.Info().Msg("no Redis configured, bookings are serialized in-process")
	}

	svc := appointment.NewService(repo, locker, cfg)
	m := metrics.NewCollector("hospital")

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Metrics:  m,
		Logger:   logger,
		Postgres: pgPinger,
		Redis:    redisPinger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func redisPing(rdb *redis.Client) api.PingFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// startPoolStats logs pool saturation once a minute at debug level.
func startPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				zerolog.Ctx(ctx).Debug().
					Int32("total", st.TotalConns()).
					Int32("idle", st.IdleConns()).
					Int32("acquired", st.AcquiredConns()).
					Msg("postgres pool stats")
			}
		}
	}()
}
