package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aescanero/dago-node-calculator/internal/session"
)

type titleBody struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, owner string) {
	var body titleBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.Store.CreateSession(r.Context(), owner, body.Title)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, owner string) {
	skip, limit, err := page(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sessions, err := s.Store.ListSessions(r.Context(), owner, skip, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	full, err := s.Store.GetSession(r.Context(), owner, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, full)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body titleBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.Store.UpdateSession(r.Context(), owner, id, body.Title)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, owner string) {
	s.deleteByID(w, r, owner, s.Store.DeleteSession)
}

func (s *Server) handleCreateVariable(w http.ResponseWriter, r *http.Request, owner string) {
	var v session.Variable
	if err := decodeJSON(w, r, &v); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.Store.CreateVariable(r.Context(), owner, v)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetVariable(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	v, err := s.Store.GetVariable(r.Context(), owner, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVariable(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value_json"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	v, err := s.Store.UpdateVariable(r.Context(), owner, id, body.Name, body.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVariable(w http.ResponseWriter, r *http.Request, owner string) {
	s.deleteByID(w, r, owner, s.Store.DeleteVariable)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request, owner string) {
	var p session.Program
	if err := decodeJSON(w, r, &p); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.Store.CreateProgram(r.Context(), owner, p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, created)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.Store.GetProgram(r.Context(), owner, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var p session.Program
	if err := decodeJSON(w, r, &p); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.Store.UpdateProgram(r.Context(), owner, id, p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request, owner string) {
	s.deleteByID(w, r, owner, s.Store.DeleteProgram)
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request, owner string) {
	var body struct {
		SessionID int64           `json:"session_id"`
		Input     string          `json:"input"`
		Output    json.RawMessage `json:"output_json"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(body.Output) == 0 {
		s.respondError(w, r, badRequestf("output_json is required"))
		return
	}

	h, err := s.Store.AddHistory(r.Context(), owner, body.SessionID, body.Input, body.Output)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, h)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request, owner string) {
	sessionID, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	skip, limit, err := page(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items, err := s.Store.ListHistory(r.Context(), owner, sessionID, skip, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, owner string, del func(ctx context.Context, owner string, id int64) error) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := del(r.Context(), owner, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// page reads the skip and limit query parameters.
func page(r *http.Request) (int, int, error) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}
