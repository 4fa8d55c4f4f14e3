package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/api/middleware"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/handlers"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/llm"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, db store.ChatStore, cache *store.RedisStore, completer llm.Completer) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(256 * 1024)) // conversations carry code blocks
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - fixed permissive policy; the browser client calls from any origin.
	// Preflight OPTIONS requests are answered here with an empty body.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(logger, db, cache, completer)
	auth := middleware.NewAuthMiddleware(db)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/register", h.Register)
	r.Post("/chat", h.Complete)

	// Owner-scoped routes (require API key)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/chats", h.CreateChat)
		r.Get("/chats", h.ListChats)
		r.Put("/chats/{id}", h.UpdateChat)
		r.Delete("/chats/{id}", h.DeleteChat)
	})

	return r
}
