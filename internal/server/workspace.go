package server

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"docmask/internal/docsource"
	"docmask/internal/ledger"
	"docmask/internal/match"
)

// handleDocument replaces the source document with inline text or the
// contents of a file on the server host. Any existing masking state is
// dropped; positions from the old document would be meaningless.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		Path string `json:"path"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	text := req.Text
	if req.Path != "" {
		loaded, err := docsource.Load(req.Path)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		text = loaded
	}
	if text == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("need text or path"))
		return
	}

	s.mu.Lock()
	s.source = text
	s.working = text
	s.led.Clear()
	s.epoch++
	s.mu.Unlock()

	s.log.Info("document loaded", zap.Int("bytes", len(text)))
	s.writeJSON(w, http.StatusOK, map[string]any{"documentBytes": len(text)})
}

// handleExtract narrows the working text to the range between two words of
// the source document. Matching ignores case and accents; the end word only
// counts after the start. Extraction always runs against the full source,
// so repeated extracts never compound.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartWord      string `json:"startWord"`
		EndWord        string `json:"endWord"`
		IncludeEndWord *bool  `json:"includeEndWord"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.StartWord == "" || req.EndWord == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("need startWord and endWord"))
		return
	}
	include := s.cfg.IncludeEndWord
	if req.IncludeEndWord != nil {
		include = *req.IncludeEndWord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == "" {
		s.writeError(w, http.StatusConflict, errors.New("no document loaded"))
		return
	}
	extract, err := match.Extract(s.source, req.StartWord, req.EndWord, include)
	if err != nil {
		var nf *match.NotFoundError
		if errors.As(err, &nf) {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.working = extract
	s.led.Clear()
	s.epoch++

	s.log.Info("extracted range",
		zap.String("startWord", req.StartWord),
		zap.String("endWord", req.EndWord),
		zap.Int("bytes", len(extract)))
	s.writeJSON(w, http.StatusOK, map[string]any{"text": extract})
}

// maskedStateLocked renders the masked working text and the per-name
// groups. Caller holds s.mu.
func (s *Server) maskedStateLocked() (string, ledger.Report, []ledger.Group) {
	masked, report := s.led.Rebuild(s.working)
	return masked, report, s.led.Groups()
}

func (s *Server) recordRebuild(report ledger.Report) {
	s.met.Rebuilds.Add(1)
	s.met.StaleEntries.Add(int64(report.Stale))
	s.met.OverlapWarnings.Add(int64(report.Overlaps))
}

// handleMask masks every occurrence of the given names in the working
// text. Names may arrive as a comma-separated string or as a list.
func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names string   `json:"names"`
		List  []string `json:"list"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	names := req.List
	if req.Names != "" {
		names = append(names, ledger.ParseNames(req.Names)...)
	}
	if len(names) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("need names"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.working == "" {
		s.writeError(w, http.StatusConflict, errors.New("no document loaded"))
		return
	}
	before := s.led.Names()
	added := s.led.ApplyAll(s.working, names)
	if added > 0 {
		s.epoch++
	}
	s.met.NamesMasked.Add(int64(s.led.Names() - before))
	s.met.OccurrencesMasked.Add(int64(added))

	masked, report, groups := s.maskedStateLocked()
	s.recordRebuild(report)
	s.log.Info("masked names", zap.Int("occurrences", added), zap.Int("names", s.led.Names()))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"masked":      masked,
		"occurrences": added,
		"groups":      groups,
		"report":      report,
	})
}

// handleUndo removes one masked name, by normalized key or by group index,
// and renumbers the remaining tokens.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Index *int   `json:"index"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	switch {
	case req.Key != "":
		err = s.led.Undo(req.Key)
	case req.Index != nil:
		err = s.led.UndoIndex(*req.Index)
	default:
		s.writeError(w, http.StatusBadRequest, errors.New("need key or index"))
		return
	}
	if err != nil {
		// Undoing a vanished selection is a stale-view race, not a fault.
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.epoch++
	s.met.NamesUndone.Add(1)

	masked, report, groups := s.maskedStateLocked()
	s.recordRebuild(report)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"masked": masked,
		"groups": groups,
		"report": report,
	})
}

// handlePreview renders the masked working text without mutating anything.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	masked, report, groups := s.maskedStateLocked()
	s.recordRebuild(report)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"masked": masked,
		"groups": groups,
		"report": report,
	})
}

// handleRestore substitutes original names back into the given text,
// usually a model reply that carries mask tokens.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("need text"))
		return
	}

	s.mu.Lock()
	restored := s.led.Restore(req.Text)
	s.mu.Unlock()
	s.met.RestoresTotal.Add(1)
	s.writeJSON(w, http.StatusOK, map[string]any{"restored": restored})
}
