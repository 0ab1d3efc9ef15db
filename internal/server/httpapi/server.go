// Package httpapi exposes the sync protocol over HTTP/JSON: account
// endpoints, per-kind entity upsert and query, and presigned upload slots.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/dmitrijs2005/linkstash/internal/server/config"
	"github.com/dmitrijs2005/linkstash/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the HTTP handler dependencies.
type Server struct {
	users     *services.UserService
	entities  *services.EntityService
	files     *services.FileService
	jwtSecret []byte
	log       logging.Logger
}

func New(users *services.UserService, entities *services.EntityService,
	files *services.FileService, cfg *config.Config, log logging.Logger) *Server {
	return &Server{
		users:     users,
		entities:  entities,
		files:     files,
		jwtSecret: []byte(cfg.SecretKey),
		log:       log,
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)

	r.Get("/healthz", s.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", s.Register)
		r.Post("/users/login", s.Login)
		r.Post("/users/refresh", s.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.withAuth)
			r.Put("/{kind}/{id}", s.UpsertEntity)
			r.Get("/{kind}", s.ListEntities)
			r.Post("/uploads", s.CreateUpload)
		})
	})

	return r
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
