package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hernannicolaus/api-turnos-hospital/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	PgPool  *pgxpool.Pool // nil with the memory backend
	Redis   *redis.Client // nil with the memory backend
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
		})

		r.Post("/patients", createPatientHandler(cfg.Service))
		r.Get("/patients", listPatientsHandler(cfg.Service))
		r.Get("/patients/{id}", getPatientHandler(cfg.Service))

		r.Post("/professionals", createProfessionalHandler(cfg.Service))
		r.Get("/professionals", listProfessionalsHandler(cfg.Service))
		r.Get("/professionals/{id}", getProfessionalHandler(cfg.Service))

		r.Post("/appointments", createAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}/attend", attendAppointmentHandler(cfg.Service))
	})

	return r
}
