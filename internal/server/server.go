package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marginhq/margin/internal/engine"
	"github.com/marginhq/margin/internal/store"
)

// Server is the margin HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database and version string.
func New(db *store.DB, version string) *Server {
	s := &Server{
		db:      db,
		engine:  engine.New(db),
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/items", s.handleCreateItem)
		r.Get("/items", s.handleListItems)
		r.Get("/items/search", s.handleSearchItems)
		r.Put("/items/{itemID}", s.handleUpdateItem)
		r.Delete("/items/{itemID}", s.handleDeleteItem)

		r.Get("/tags", s.handleListTags)
		r.Get("/tags/suggest", s.handleSuggestTags)
		r.Delete("/tags", s.handleDeleteUserTags)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

// userID resolves the calling user from the X-User-ID header. Auth lives
// in front of margin; here the header is the tenant boundary and every
// query below it is scoped by this value.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
