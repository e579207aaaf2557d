// Package rest serves an in-memory REST collection resource compatible with
// the remote the sync client talks to. It stands in for json-server during
// development and in tests.
package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yourusername/productsync/internal/infrastructure/jsonx"
	"go.uber.org/zap"
)

// maxBodySize limit for request bodies
const maxBodySize = 1 << 20

type record map[string]any

// Server in-memory collection resource
type Server struct {
	mu       sync.RWMutex
	resource string
	order    []string
	items    map[string]record
	nextID   int
	logger   *zap.Logger
}

// NewServer creates an empty collection served under /{resource}
func NewServer(resource string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		resource: resource,
		items:    make(map[string]record),
		nextID:   1,
		logger:   logger.Named("collection"),
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/"+s.resource, func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.replace)
		r.Patch("/{id}", s.patch)
		r.Delete("/{id}", s.delete)
	})

	return r
}

// LoadSeed reads a json-server style database ({"<resource>": [...]}) and
// appends its records, keeping their ids.
func (s *Server) LoadSeed(r io.Reader) error {
	var db map[string][]record
	if err := jsonx.NewDecoder(r).Decode(&db); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range db[s.resource] {
		id := idString(item["id"])
		if id == "" {
			id = s.allocateID()
		}
		if _, exists := s.items[id]; exists {
			return fmt.Errorf("seed has duplicate id %q", id)
		}
		if n, err := strconv.Atoi(id); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		item["id"] = id
		s.items[id] = item
		s.order = append(s.order, id)
	}
	return nil
}

// Len number of stored records
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	s.mu.RUnlock()

	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	item, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	id := s.allocateID()
	item["id"] = id
	s.items[id] = item
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, false)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, true)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, merge bool) {
	id := chi.URLParam(r, "id")
	body, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[id]
	if !exists {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	next := body
	if merge {
		next = make(record, len(current)+len(body))
		for k, v := range current {
			next[k] = v
		}
		for k, v := range body {
			next[k] = v
		}
	}
	next["id"] = id
	s.items[id] = next

	s.respondJSON(w, http.StatusOK, next)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.respondJSON(w, http.StatusOK, record{})
}

// allocateID must be called with s.mu held
func (s *Server) allocateID() string {
	for {
		id := strconv.Itoa(s.nextID)
		s.nextID++
		if _, taken := s.items[id]; !taken {
			return id
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (record, bool) {
	var item record
	if err := jsonx.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if item == nil {
		s.respondError(w, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	return item, true
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonx.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
