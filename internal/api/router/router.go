package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/handlers"
	httpmiddleware "github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/middleware"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/webchat"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	SessionHandler  *handlers.SessionHandler
	AdminSessions   *handlers.AdminSessionsHandler
	WebChat         *webchat.Handler
	Health          http.Handler
	MetricsHandler  http.Handler
	RequestObserver httpmiddleware.RequestObserver
	RateLimiter     *httpmiddleware.RateLimiter

	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.RequestObserver))

	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandler()
	}
	r.Method(http.MethodGet, "/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.SessionHandler != nil {
		r.Route("/session", func(s chi.Router) {
			if cfg.RateLimiter != nil {
				s.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			s.Get("/", cfg.SessionHandler.GetSession)
			s.Post("/events", cfg.SessionHandler.PostEvent)
			if cfg.WebChat != nil {
				s.Get("/ws", cfg.WebChat.HandleWebSocket)
			}
		})
	}

	if cfg.AdminSessions != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sessions/{pid}", cfg.AdminSessions.GetSession)
		})
	}

	return r
}
