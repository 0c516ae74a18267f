package api

import (
	"net/http"
)

type convertBody struct {
	Value    *float64 `json:"value"`
	FromUnit string   `json:"from_unit"`
	ToUnit   string   `json:"to_unit"`
	Category string   `json:"category"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var body convertBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if body.Value == nil {
		s.respondError(w, r, badRequestf("value is required"))
		return
	}

	conv, err := s.Converter.Convert(*body.Value, body.FromUnit, body.ToUnit, body.Category)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.Converter.Categories())
}
