package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aescanero/dago-node-calculator/internal/stats"
)

type dataBody struct {
	Data string `json:"data"`
	Type string `json:"type,omitempty"`
}

func (s *Server) handleDescriptive(w http.ResponseWriter, r *http.Request) {
	var body dataBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	data, err := stats.ParseData(body.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondStats(w, r)(stats.Describe(data))
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	var body dataBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	x, y, err := stats.ParseXY(body.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondStats(w, r)(stats.Regress(x, y, body.Type))
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	var req stats.DistributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondStats(w, r)(stats.Distribution(req))
}

func (s *Server) handleHypothesis(w http.ResponseWriter, r *http.Request) {
	var req stats.HypothesisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondStats(w, r)(stats.Hypothesis(req))
}

// histogramBody accepts data as a ParseData string or a number list, and bins
// as a count or "auto".
type histogramBody struct {
	Data json.RawMessage `json:"data"`
	Bins json.RawMessage `json:"bins,omitempty"`
}

func (b histogramBody) parse() ([]float64, int, error) {
	var data []float64
	var text string
	switch {
	case len(b.Data) == 0:
	case json.Unmarshal(b.Data, &text) == nil:
		parsed, err := stats.ParseData(text)
		if err != nil {
			return nil, 0, err
		}
		data = parsed
	case json.Unmarshal(b.Data, &data) == nil:
	default:
		return nil, 0, badRequestf("data must be a string or a list of numbers")
	}

	bins := 0
	if len(b.Bins) > 0 && string(b.Bins) != "null" {
		var mode string
		if json.Unmarshal(b.Bins, &mode) == nil {
			if !strings.EqualFold(mode, "auto") {
				return nil, 0, badRequestf("bins must be a positive integer or \"auto\"")
			}
		} else if err := json.Unmarshal(b.Bins, &bins); err != nil || bins <= 0 {
			return nil, 0, badRequestf("bins must be a positive integer or \"auto\"")
		}
	}
	return data, bins, nil
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	var body histogramBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	data, bins, err := body.parse()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondStats(w, r)(stats.Histogram(data, bins))
}

// respondStats writes a statistics result or its error.
func (s *Server) respondStats(w http.ResponseWriter, r *http.Request) func(stats.Result, error) {
	return func(res stats.Result, err error) {
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, res)
	}
}
