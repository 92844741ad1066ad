package server

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"docmask/internal/llm"
	"docmask/internal/store"
)

// handleComplete sends the masked working text to a model and restores the
// reply. The ledger is snapshotted up front and the provider call runs
// without holding the lock; if any mutation lands while the call is in
// flight, the result belongs to a stale view and is discarded with 409.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instructions      string        `json:"instructions"`
		InstructionsLabel string        `json:"instructionsLabel"`
		Model             string        `json:"model"`
		MaxTokens         int           `json:"maxTokens"`
		History           []llm.Message `json:"history"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.InstructionsLabel != "" {
		text, ok, err := s.dicts.Get(store.KindInstructions, req.InstructionsLabel)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			s.writeError(w, http.StatusNotFound, errors.New("unknown instructions label"))
			return
		}
		req.Instructions = text
	}
	if req.Instructions == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("need instructions or instructionsLabel"))
		return
	}
	if req.Model == "" {
		req.Model = s.cfg.DefaultModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.cfg.MaxTokens
	}

	// Snapshot under the lock.
	s.mu.Lock()
	if s.working == "" {
		s.mu.Unlock()
		s.writeError(w, http.StatusConflict, errors.New("no document loaded"))
		return
	}
	epoch := s.epoch
	snapshot := s.led.Clone()
	masked, report := snapshot.Rebuild(s.working)
	s.mu.Unlock()
	s.recordRebuild(report)

	creq := llm.NewRequest(req.Instructions, masked, req.Model, req.MaxTokens)
	creq.History = req.History

	s.met.CompletionRequests.Add(1)
	start := time.Now()
	reply, err := llm.Complete(r.Context(), s.reg, creq)
	elapsed := time.Since(start)
	if err != nil {
		s.met.CompletionErrors.Add(1)
		s.log.Warn("completion failed",
			zap.String("requestId", creq.ID),
			zap.String("model", creq.Model),
			zap.Error(err))
		status := http.StatusBadGateway
		var ue *llm.UpstreamError
		if !errors.As(err, &ue) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	s.met.RecordProviderLatency(elapsed)

	s.mu.Lock()
	moved := s.epoch != epoch
	s.mu.Unlock()
	if moved {
		s.met.CompletionDiscarded.Add(1)
		s.log.Info("completion discarded, workspace changed mid-flight",
			zap.String("requestId", creq.ID))
		s.writeError(w, http.StatusConflict, errors.New("workspace changed during completion"))
		return
	}

	restored := snapshot.Restore(reply)
	s.met.RestoresTotal.Add(1)
	s.log.Info("completion finished",
		zap.String("requestId", creq.ID),
		zap.String("model", creq.Model),
		zap.Duration("elapsed", elapsed))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"requestId": creq.ID,
		"model":     creq.Model,
		"reply":     reply,
		"restored":  restored,
	})
}
