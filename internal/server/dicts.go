package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// Dictionary endpoints: saved completion instructions and chat snippets,
// keyed by label under /dicts/{kind}.

func (s *Server) handleDictList(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	labels, err := s.dicts.List(kind)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

func (s *Server) handleDictGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	text, ok, err := s.dicts.Get(vars["kind"], vars["label"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("unknown label"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"label": vars["label"], "text": text})
}

func (s *Server) handleDictPut(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Text string `json:"text"`
	}
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("need text"))
		return
	}
	if err := s.dicts.Save(vars["kind"], vars["label"], req.Text); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"saved": vars["label"]})
}

func (s *Server) handleDictDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.dicts.Delete(vars["kind"], vars["label"]); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"deleted": vars["label"]})
}
