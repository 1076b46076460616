package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/config"
	"github.com/medbook/appointment-booking/internal/db"
	"github.com/medbook/appointment-booking/internal/doctor"
	redisclient "github.com/medbook/appointment-booking/internal/redis"
	"github.com/medbook/appointment-booking/internal/solicitation"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "trigger-worker").Logger()
	log.Info().Msg("trigger-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().
		Str("env", cfg.Env).
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("processing_max_age", cfg.ProcessingMaxAge).
		Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:      cfg.RedisAddr,
		Username:  cfg.RedisUsername,
		Password:  cfg.RedisPassword,
		PoolSize:  cfg.RedisPoolSize,
		OpTimeout: cfg.RedisOpTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	doctorRepo := doctor.NewPgRepository(pgPool)
	availabilityRepo := availability.NewPgRepository(pgPool)
	solicitationRepo := solicitation.NewPgRepository(pgPool)

	locker := redisclient.NewRedisDayLocker(rdb, cfg.LockTTL)
	queue := redisclient.NewRedisTriggerQueue(rdb, cfg.TriggerQueueKey)

	availabilitySvc := availability.NewService(availabilityRepo, doctorRepo, locker, log)
	solicitationSvc := solicitation.NewService(solicitationRepo, doctorRepo, availabilitySvc, queue, log)

	consumer := solicitation.NewConsumer(queue, solicitationSvc, cfg.PollTimeout, log)

	// The sweep recovers solicitations stuck in PROCESSING after a worker
	// crash or a failed reprocess.
	go runSweeper(rootCtx, solicitationSvc, cfg.SweepInterval, cfg.ProcessingMaxAge, log)

	consumer.Run(rootCtx)

	log.Info().Msg("shutting down trigger-worker")
}

func runSweeper(ctx context.Context, svc *solicitation.Service, interval, maxAge time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, svc, maxAge, log)
		}
	}
}

func sweepOnce(ctx context.Context, svc *solicitation.Service, maxAge time.Duration, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	swept, err := svc.SweepStaleProcessing(runCtx, maxAge)
	if err != nil {
		log.Error().Err(err).Msg("sweep run error")
		return
	}
	if swept > 0 {
		log.Info().Int("swept", swept).Dur("took", time.Since(start)).Msg("stale solicitations reset")
	}
}
