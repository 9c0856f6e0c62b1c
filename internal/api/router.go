package api

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner handlers.DayPlanner, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	validate, err := handlers.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("new router: %w", err)
	}

	days := &handlers.DayHandler{Planner: planner, Validate: validate, Log: log}
	sessions := &handlers.SessionHandler{Planner: planner, Validate: validate, Log: log}

	router := httprouter.New()
	router.GET("/healthz", handlers.Health)
	router.POST("/api/days/timeline", days.Timeline)
	router.POST("/api/days/optimize", days.Optimize)
	router.POST("/api/sessions/:id/days/refresh", days.Refresh)
	router.POST("/api/sessions/:id/routes", sessions.Route)
	router.DELETE("/api/sessions/:id", sessions.End)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})

	chain := alice.New(corsHandler.Handler, requestID, logging(log), recoverPanic(log))
	return chain.Then(router), nil
}
