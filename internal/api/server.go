// Package api is the HTTP surface over the collection registry: snapshots,
// live websocket snapshots, the public contact form and admin mutations.
package api

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirdesai22/sportsfest-sync/internal/auth"
	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/workers"
)

// OutboxLister returns the newest outbox rows. It is nil when the store has
// no outbox.
type OutboxLister func(ctx context.Context, limit int) ([]models.Outbox, error)

type Options struct {
	Registry *collections.Registry
	Auth     auth.Authenticator
	DLQ      workers.DeadLetters
	Replayer *workers.Replayer
	Outbox   OutboxLister

	NewsFeedURL    string
	AssetsDir      string
	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	reg      *collections.Registry
	auth     auth.Authenticator
	dlq      workers.DeadLetters
	replayer *workers.Replayer
	outbox   OutboxLister
	newsURL  string
	origins  []string
	router   chi.Router
}

func New(o Options) *Server {
	s := &Server{
		reg:      o.Registry,
		auth:     o.Auth,
		dlq:      o.DLQ,
		replayer: o.Replayer,
		outbox:   o.Outbox,
		newsURL:  o.NewsFeedURL,
		origins:  o.AllowedOrigins,
	}
	s.setupRoutes(o.AssetsDir)
	return s
}

func (s *Server) setupRoutes(assets string) {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	if assets != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assets))))
	}
	r.Get("/ws/{entity}", s.handleWatch)

	r.Route("/api", func(r chi.Router) {
		r.Get("/{entity}", s.handleList)
		r.Post("/messages", s.handleCreateMessage)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/clubs", s.handleCreateClub)
			r.Put("/clubs/{id}", s.handleUpdateClub)
			r.Delete("/clubs/{id}", s.handleDeleteClub)

			r.Post("/fixtures", s.handleCreateFixture)
			r.Put("/fixtures/{id}", s.handleUpdateFixture)
			r.Put("/fixtures/{id}/status", s.handleFixtureStatus)
			r.Delete("/fixtures/{id}", s.handleDeleteFixture)

			r.Post("/results", s.handleCreateResult)
			r.Put("/results/{id}", s.handleUpdateResult)
			r.Delete("/results/{id}", s.handleDeleteResult)

			r.Post("/media", s.handleCreateMedia)
			r.Put("/media/{id}", s.handleUpdateMedia)
			r.Delete("/media/{id}", s.handleDeleteMedia)

			r.Post("/press", s.handleCreatePress)
			r.Put("/press/{id}", s.handleUpdatePress)
			r.Delete("/press/{id}", s.handleDeletePress)
			r.Post("/press/import", s.handleImportNews)

			r.Put("/messages/{id}/status", s.handleMessageStatus)
			r.Delete("/messages/{id}", s.handleDeleteMessage)

			r.Get("/outbox", s.handleOutbox)
			r.Get("/dlq", s.handleDLQ)
			r.Post("/retry/{id}", s.handleRetry)
		})
	})

	s.router = r
}

// Handler returns the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Printf("🧭 API running on %s", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.auth.CheckAuth(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (s *Server) authorized(r *http.Request) bool {
	_, err := s.auth.CheckAuth(r.Context(), r.Header.Get("Authorization"))
	return err == nil
}
