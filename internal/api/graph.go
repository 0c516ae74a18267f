package api

import (
	"encoding/json"
	"net/http"

	"github.com/aescanero/dago-node-calculator/internal/plot"
	"github.com/aescanero/dago-node-calculator/internal/session"
	"go.uber.org/zap"
)

type plotSettings struct {
	SessionID *int64 `json:"session_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

type plotBody struct {
	Expr     string          `json:"expr"`
	Type     plot.Type       `json:"type"`
	Domain   plot.Domain     `json:"domain"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	var body plotBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	var settings plotSettings
	if len(body.Settings) > 0 {
		if err := json.Unmarshal(body.Settings, &settings); err != nil {
			s.respondError(w, r, badRequestf("invalid settings: %v", err))
			return
		}
	}
	if body.Type == "" {
		body.Type = plot.Type2D
	}

	data, err := s.Sampler.Sample(r.Context(), plot.Request{
		Expr:   body.Expr,
		Type:   body.Type,
		Domain: body.Domain,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.recordGraph(r, settings, body)
	s.respondJSON(w, http.StatusOK, map[string]any{"plot_data": data})
}

// recordGraph queues a graph row when the caller names a session and a
// principal is present.
func (s *Server) recordGraph(r *http.Request, settings plotSettings, body plotBody) {
	owner := s.principal(r)
	if settings.SessionID == nil || owner == "" || s.Recorder == nil {
		return
	}

	params, err := json.Marshal(map[string]any{
		"domain":   body.Domain,
		"settings": body.Settings,
	})
	if err != nil {
		s.logger.Error("failed to marshal graph parameters", zap.Error(err))
		return
	}

	ok := s.Recorder.RecordGraph(owner, session.Graph{
		SessionID:  *settings.SessionID,
		Name:       settings.Name,
		Type:       string(body.Type),
		Expression: body.Expr,
		Parameters: params,
	})
	if !ok {
		s.logger.Warn("graph not recorded",
			zap.Int64("session_id", *settings.SessionID),
		)
	}
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := s.Store.GetGraph(r.Context(), owner, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request, owner string) {
	s.deleteByID(w, r, owner, s.Store.DeleteGraph)
}
