package http

import (
	"net/http"

	"clubfund/internal/core"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.Sessions.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	v, err := s.svc.Sessions.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var sess core.Session
	if err := decodeJSON(w, r, &sess); err != nil {
		respondError(w, r, err)
		return
	}
	v, err := s.svc.Sessions.Create(r.Context(), sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var sess core.Session
	if err := decodeJSON(w, r, &sess); err != nil {
		respondError(w, r, err)
		return
	}
	sess.ID = id
	v, err := s.svc.Sessions.Update(r.Context(), sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	if err := s.svc.Sessions.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
