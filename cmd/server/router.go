package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crtracker/internal/platform/middleware"
	platformredis "crtracker/internal/platform/redis"
	reportservice "crtracker/internal/report/service"
	"crtracker/internal/stats"
	userservice "crtracker/internal/user/service"
)

// application bundles the wired services for the transport layer. The REST
// surface is deferred; for now only the operational endpoints are mounted.
type application struct {
	reports *reportservice.Service
	users   *userservice.Service
	stats   *stats.Service
	redis   *platformredis.Client
}

func newRouter(app *application, log *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Logging(log))

	router.Get("/healthz", app.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	if app.redis != nil {
		if err := app.redis.Health(r.Context()); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
