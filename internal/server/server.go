// Package server exposes the masking workspace over HTTP.
//
// One workspace per process: a source document, an optional extracted
// working range, and the ledger of masking changes over it. Mutating
// endpoints advance an epoch counter; completion calls snapshot the
// ledger and discard their result if the epoch moved while the provider
// round-trip was in flight.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"docmask/internal/config"
	"docmask/internal/ledger"
	"docmask/internal/llm"
	"docmask/internal/metrics"
	"docmask/internal/store"
)

// maxRequestBody caps request payloads. Documents come in through this
// limit too, so it is generous.
const maxRequestBody = 16 << 20

// Server is the docmask HTTP API.
type Server struct {
	cfg       *config.Config
	log       *zap.Logger
	met       *metrics.Metrics
	reg       *llm.Registry
	dicts     store.Store
	startTime time.Time

	mu      sync.Mutex
	source  string // full document as loaded
	working string // extracted range being masked; equals source until an extract
	led     *ledger.Ledger
	epoch   uint64
}

// New creates a server. dicts may not be nil; pass store.NewMemory() when
// no persistent store is configured.
func New(cfg *config.Config, log *zap.Logger, met *metrics.Metrics, reg *llm.Registry, dicts store.Store) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		met:       met,
		reg:       reg,
		dicts:     dicts,
		startTime: time.Now(),
		led:       ledger.New(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/models", s.handleModels).Methods(http.MethodGet)

	r.HandleFunc("/document", s.handleDocument).Methods(http.MethodPost)
	r.HandleFunc("/extract", s.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/mask", s.handleMask).Methods(http.MethodPost)
	r.HandleFunc("/undo", s.handleUndo).Methods(http.MethodPost)
	r.HandleFunc("/preview", s.handlePreview).Methods(http.MethodGet)
	r.HandleFunc("/restore", s.handleRestore).Methods(http.MethodPost)
	r.HandleFunc("/complete", s.handleComplete).Methods(http.MethodPost)

	r.HandleFunc("/dicts/{kind}", s.handleDictList).Methods(http.MethodGet)
	r.HandleFunc("/dicts/{kind}/{label}", s.handleDictGet).Methods(http.MethodGet)
	r.HandleFunc("/dicts/{kind}/{label}", s.handleDictPut).Methods(http.MethodPut)
	r.HandleFunc("/dicts/{kind}/{label}", s.handleDictDelete).Methods(http.MethodDelete)

	return http.MaxBytesHandler(r, maxRequestBody)
}

// ListenAndServe starts the API server on the configured bind address.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.ServerPort)
	s.log.Info("listening", zap.String("addr", addr))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := map[string]any{
		"status":        "running",
		"uptime":        time.Since(s.startTime).Round(time.Second).String(),
		"documentBytes": len(s.source),
		"workingBytes":  len(s.working),
		"maskedNames":   s.led.Names(),
		"changeEntries": s.led.Len(),
		"epoch":         s.epoch,
		"defaultModel":  s.cfg.DefaultModel,
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.met.Snapshot())
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelRow struct {
		ID      string `json:"id"`
		Display string `json:"display"`
	}
	var rows []modelRow
	for _, m := range s.reg.Models() {
		rows = append(rows, modelRow{ID: m, Display: llm.DisplayName(m)})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"models":  rows,
		"default": s.cfg.DefaultModel,
	})
}

// readJSON decodes the request body into dst, rejecting unknown fields.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
