package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/divu-hq/module-builder/internal/blueprints"
	"github.com/divu-hq/module-builder/internal/builder"
	"github.com/divu-hq/module-builder/internal/config"
	"github.com/divu-hq/module-builder/internal/notify"
	"github.com/divu-hq/module-builder/internal/storage"
	"github.com/divu-hq/module-builder/internal/uploads"
)

// Server represents the HTTP API server
type Server struct {
	config          config.ServerConfig
	router          *chi.Mux
	builder         *builder.Service
	repo            storage.Repository
	blueprintLoader *blueprints.Loader
	uploadStore     *uploads.Store
	hub             *notify.Hub
	authMiddleware  *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	svc *builder.Service,
	repo storage.Repository,
	loader *blueprints.Loader,
	uploadStore *uploads.Store,
	hub *notify.Hub,
) *Server {
	s := &Server{
		config:          cfg,
		builder:         svc,
		repo:            repo,
		blueprintLoader: loader,
		uploadStore:     uploadStore,
		hub:             hub,
		authMiddleware:  NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Actor-ID", "X-Actor-Name"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Drafts: the wizard surface
		r.Route("/drafts", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/", s.handleListDrafts)
			r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/resume", s.handleResumeDraft)
			r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/", s.handleCreateDraft)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/", s.handleGetDraft)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Put("/info", s.handleUpdateInfo)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Put("/step", s.handleSetStep)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/publish", s.handlePublish)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/abandon", s.handleRequestAbandon)
				r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/abandon/confirm", s.handleConfirmAbandon)

				r.Route("/pages", func(r chi.Router) {
					r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/", s.handleAddPage)

					r.Route("/{pageID}", func(r chi.Router) {
						r.With(s.authMiddleware.RequirePermission("drafts:write")).Delete("/", s.handleRemovePage)
						r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/duplicate", s.handleDuplicatePage)
						r.With(s.authMiddleware.RequirePermission("drafts:write")).Put("/name", s.handleRenamePage)

						r.Route("/sections", func(r chi.Router) {
							r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/", s.handleAddSection)

							r.Route("/{sectionID}", func(r chi.Router) {
								r.With(s.authMiddleware.RequirePermission("drafts:write")).Put("/", s.handleUpdateSection)
								r.With(s.authMiddleware.RequirePermission("drafts:write")).Delete("/", s.handleRemoveSection)
								r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/move", s.handleMoveSection)
								r.With(s.authMiddleware.RequirePermission("drafts:write")).Post("/items", s.handleAppendItem)
								r.With(s.authMiddleware.RequirePermission("drafts:write")).Delete("/items/{index}", s.handleRemoveItem)
							})
						})
					})
				})
			})
		})

		// Published modules
		r.Route("/modules", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("modules:read")).Get("/", s.handleListModules)
			r.With(s.authMiddleware.RequirePermission("modules:read")).Get("/{id}", s.handleGetModule)
			r.With(s.authMiddleware.RequirePermission("modules:write")).Delete("/{id}", s.handleDeleteModule)
		})

		// Section kind catalog for the type chooser
		r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/section-kinds", s.handleListSectionKinds)

		// Blueprints
		r.Route("/blueprints", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("blueprints:read")).Get("/", s.handleListBlueprints)
			r.With(s.authMiddleware.RequirePermission("blueprints:read")).Get("/{id}", s.handleGetBlueprint)
		})

		// Media uploads for photo/video sections
		r.Route("/uploads", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("uploads:write")).Post("/", s.handleUpload)
			r.With(s.authMiddleware.RequirePermission("uploads:read")).Get("/{name}", s.handleGetUpload)
		})

		// Notices push channel
		r.With(s.authMiddleware.RequirePermission("drafts:read")).Get("/notices/ws", s.handleNoticesWS)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
