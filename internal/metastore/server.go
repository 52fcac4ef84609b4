package metastore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/kleoslabs/kleos/pkg/healthprobe"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Record is the wire shape of one metadata row.
type Record struct {
	MarketIndex uint64 `json:"market_index"`
	Question    string `json:"question"`
}

// Server exposes the metadata bridge HTTP API.
type Server struct {
	server *http.Server
	store  Store
	logger *zap.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port          string
	Store         Store
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
}

// NewServer creates the bridge server with its routes mounted.
func NewServer(cfg *ServerConfig) *Server {
	s := &Server{store: cfg.Store, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	r.Get("/markets", s.handleGet)
	r.Post("/markets", s.handleUpsert)
	r.Put("/markets", s.handleUpdate)

	s.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("metastore-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("metastore-server-shutting-down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	RequestsTotal.WithLabelValues("get").Inc()

	raw := r.URL.Query().Get("index")
	if raw == "" {
		records, err := s.store.List(r.Context())
		if err != nil {
			s.logger.Error("metadata-list-failed", zap.Error(err))
			http.Error(w, "list failed", http.StatusInternalServerError)
			return
		}
		out := make([]Record, 0, len(records))
		for index, question := range records {
			out = append(out, Record{MarketIndex: index, Question: question})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	question, err := s.store.Get(r.Context(), index)
	if errors.Is(err, types.ErrMetadataNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("metadata-get-failed",
			zap.Uint64("market-index", index),
			zap.Error(err))
		http.Error(w, "get failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Record{MarketIndex: index, Question: question})
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	RequestsTotal.WithLabelValues("upsert").Inc()

	record, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	if err := s.store.Upsert(r.Context(), record.MarketIndex, record.Question); err != nil {
		s.logger.Error("metadata-upsert-failed",
			zap.Uint64("market-index", record.MarketIndex),
			zap.Error(err))
		http.Error(w, "upsert failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleUpdate rewrites an existing record only. A PUT for an index
// that was never created is a 404, not an insert.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	RequestsTotal.WithLabelValues("update").Inc()

	record, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	err := s.store.Update(r.Context(), record.MarketIndex, record.Question)
	if errors.Is(err, types.ErrMetadataNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("metadata-update-failed",
			zap.Uint64("market-index", record.MarketIndex),
			zap.Error(err))
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (Record, bool) {
	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return Record{}, false
	}
	if record.Question == "" {
		http.Error(w, "question cannot be empty", http.StatusBadRequest)
		return Record{}, false
	}
	return record, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
