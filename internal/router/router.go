package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/ledger/internal/config"
	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/kiwari-pos/ledger/internal/handler"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/logger"
	mw "github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/kiwari-pos/ledger/internal/ws"
	"github.com/rs/zerolog/log"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed. saver and pub
// may be nil.
func New(cfg *config.Config, l *ledger.Ledger, dir *users.Directory, saver handler.Saver, pub events.Publisher, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition", handler.WarningHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(dir, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	if hub != nil {
		r.Get("/ws/{room}", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, cfg.JWTSecret, w, r)
		})
	}

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Catalog; writes are limited to managers inside the handlers
		menuHandler := handler.NewMenuHandler(l, saver)
		r.Route("/menu", menuHandler.RegisterRoutes)

		categoryHandler := handler.NewCategoryHandler(l, saver)
		r.Route("/categories", categoryHandler.RegisterRoutes)

		// Counter
		draftHandler := handler.NewDraftHandler(l)
		r.Route("/draft", draftHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(l, saver, pub)
		r.Route("/orders", orderHandler.RegisterRoutes)

		templateHandler := handler.NewTemplateHandler(l, saver)
		r.Route("/templates", templateHandler.RegisterRoutes)

		reportsHandler := handler.NewReportsHandler(l)
		r.Route("/reports", reportsHandler.RegisterRoutes)

		settingsHandler := handler.NewSettingsHandler(l, saver)
		r.Route("/settings", settingsHandler.RegisterRoutes)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			userHandler := handler.NewUserHandler(dir, saver)
			r.Route("/users", userHandler.RegisterRoutes)
		})
	})

	log.Info().Msg("router initialized with all handlers")
	return r
}
