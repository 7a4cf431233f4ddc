// Package server exposes the search cache over HTTP for the presentation
// layer. It serves the free-text search endpoint, per-device snapshot
// reads, a health probe, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"topomap/internal/cache"
	"topomap/internal/search"
)

// Poller is the subset of the engine the health endpoint reports on.
type Poller interface {
	Info() (cycles int, lastCycle time.Time)
}

// Server is the read-only query surface. It never writes to the cache.
type Server struct {
	httpServer *http.Server
	store      *cache.Store
	engine     *search.Engine
	poller     Poller
}

// New builds a Server listening on addr, answering queries from store.
// poller may be nil when the server runs without a sweep loop (the
// standalone search CLI does not use the HTTP layer at all).
func New(addr string, store *cache.Store, poller Poller) *Server {
	s := &Server{
		store:  store,
		engine: search.New(store),
		poller: poller,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.withLogging(s.handleSearch))
	mux.HandleFunc("GET /devices", s.withLogging(s.handleDevices))
	mux.HandleFunc("GET /devices/{hostname}", s.withLogging(s.handleDevice))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("query server listening", slog.String("addr", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// handleSearch answers GET /search?q=term with a hostname -> ifindex list
// mapping. A missing or blank term yields an empty object; failures of
// individual hosts are invisible here, they just have no entry.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Search(r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleDevices lists the hostnames currently present in the cache.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ReadAll()
	if err != nil {
		slog.Error("cache enumeration failed", slog.String("error", err.Error()))
		http.Error(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	hostnames := make([]string, 0, len(entries))
	for _, e := range entries {
		hostnames = append(hostnames, e.Hostname)
	}
	respondJSON(w, http.StatusOK, hostnames)
}

// handleDevice returns the full cached snapshot for one hostname.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	hostname := r.PathValue("hostname")
	dev, err := s.store.Read(hostname)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "unknown device", http.StatusNotFound)
			return
		}
		slog.Error("snapshot read failed",
			slog.String("host", hostname),
			slog.String("error", err.Error()))
		http.Error(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, dev)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status    string    `json:"status"`
		Cycles    int       `json:"poll_cycles"`
		LastCycle time.Time `json:"last_cycle,omitzero"`
	}{Status: "ok"}
	if s.poller != nil {
		resp.Cycles, resp.LastCycle = s.poller.Info()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		slog.Debug("handled request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", slog.String("error", err.Error()))
	}
}
