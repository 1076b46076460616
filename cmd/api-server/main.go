package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/api"
	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/config"
	"github.com/medbook/appointment-booking/internal/db"
	"github.com/medbook/appointment-booking/internal/doctor"
	redisclient "github.com/medbook/appointment-booking/internal/redis"
	"github.com/medbook/appointment-booking/internal/solicitation"
)

const version = "0.1.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

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
	doctorSvc := doctor.NewService(doctorRepo, availabilitySvc, log)
	solicitationSvc := solicitation.NewService(solicitationRepo, doctorRepo, availabilitySvc, queue, log)

	router := api.NewRouter(api.RouterConfig{
		Doctors:        doctorSvc,
		Availabilities: availabilitySvc,
		Solicitations:  solicitationSvc,
		PgPool:         pgPool,
		Redis:          rdb,
		Log:            log,
		Env:            cfg.Env,
		Version:        version,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
