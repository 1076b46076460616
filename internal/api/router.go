package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/doctor"
	"github.com/medbook/appointment-booking/internal/solicitation"
)

type RouterConfig struct {
	Doctors        *doctor.Service
	Availabilities *availability.Service
	Solicitations  *solicitation.Service
	PgPool         *pgxpool.Pool
	Redis          *redis.Client
	Log            zerolog.Logger
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/doctors", func(r chi.Router) {
		r.Post("/", createDoctorHandler(cfg.Doctors))
		r.Get("/", listDoctorsHandler(cfg.Doctors))
		r.Get("/specialty/{specialty}", listDoctorsBySpecialtyHandler(cfg.Doctors))
		r.Get("/{id}", getDoctorHandler(cfg.Doctors))
		r.Put("/{id}", updateDoctorHandler(cfg.Doctors))
		r.Delete("/{id}", deleteDoctorHandler(cfg.Doctors))

		r.Post("/{id}/availability/generate", generateAvailabilityHandler(cfg.Availabilities))
		r.Get("/{id}/availability", getAvailabilityHandler(cfg.Availabilities))
		r.Get("/{id}/availability/slots", listAvailableSlotsHandler(cfg.Availabilities))
		r.Get("/{id}/availability/next-slot", findNextSlotHandler(cfg.Availabilities))
	})

	r.Route("/api/solicitations", func(r chi.Router) {
		r.Post("/", createSolicitationHandler(cfg.Solicitations))
		r.Get("/suggested", listSuggestedHandler(cfg.Solicitations))
		r.Get("/{id}", getSolicitationHandler(cfg.Solicitations))
		r.Post("/{id}/confirmation", confirmSuggestionHandler(cfg.Solicitations))
	})

	return r
}
