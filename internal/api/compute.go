package api

import (
	"maps"
	"net/http"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"go.uber.org/zap"
)

type evaluateSettings struct {
	Variables map[string]any `json:"variables,omitempty"`
	SessionID *int64         `json:"session_id,omitempty"`
}

type evaluateBody struct {
	Expr      string           `json:"expr"`
	Mode      calc.Mode        `json:"mode"`
	Variables map[string]any   `json:"variables,omitempty"`
	Settings  evaluateSettings `json:"settings"`
}

// request merges settings.variables with the top-level variables, the
// latter taking precedence.
func (b evaluateBody) request() calc.Request {
	vars := make(map[string]any, len(b.Settings.Variables)+len(b.Variables))
	maps.Copy(vars, b.Settings.Variables)
	maps.Copy(vars, b.Variables)
	return calc.Request{Expr: b.Expr, Mode: b.Mode, Variables: vars}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	res := s.Evaluator.Evaluate(r.Context(), body.request())
	s.recordHistory(r, body.Settings.SessionID, body.Expr, res)
	s.respondJSON(w, http.StatusOK, res)
}

// recordHistory queues a history row when the caller names a session and a
// principal is present.
func (s *Server) recordHistory(r *http.Request, sessionID *int64, input string, output any) {
	owner := s.principal(r)
	if sessionID == nil || owner == "" || s.Recorder == nil {
		return
	}
	if !s.Recorder.RecordHistory(owner, *sessionID, input, output) {
		s.logger.Warn("history not recorded",
			zap.Int64("session_id", *sessionID),
		)
	}
}

type casParams struct {
	Variable  string `json:"variable,omitempty"`
	Order     int    `json:"order,omitempty"`
	Limits    []any  `json:"limits,omitempty"`
	Approach  any    `json:"approach,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type casBody struct {
	Expr string `json:"expr"`
	casParams
	Settings casParams `json:"settings"`
}

// request fills parameters missing at the top level from settings.
func (b casBody) request() calc.CASRequest {
	p := b.casParams
	if p.Variable == "" {
		p.Variable = b.Settings.Variable
	}
	if p.Order == 0 {
		p.Order = b.Settings.Order
	}
	if p.Limits == nil {
		p.Limits = b.Settings.Limits
	}
	if p.Approach == nil {
		p.Approach = b.Settings.Approach
	}
	if p.Direction == "" {
		p.Direction = b.Settings.Direction
	}
	return calc.CASRequest{
		Expr:      b.Expr,
		Variable:  p.Variable,
		Order:     p.Order,
		Limits:    p.Limits,
		Approach:  p.Approach,
		Direction: p.Direction,
	}
}

func (s *Server) handleCAS(w http.ResponseWriter, r *http.Request) {
	op, err := calc.ParseCASOp(r.PathValue("op"))
	if err != nil {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return
	}

	var body casBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.Evaluator.RunCAS(r.Context(), op, body.request())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

type translateBody struct {
	Text      string `json:"text"`
	SessionID *int64 `json:"session_id,omitempty"`
}

type translateResponse struct {
	Expr      string    `json:"expr"`
	Mode      calc.Mode `json:"mode"`
	Reasoning string    `json:"reasoning"`
	PathTaken string    `json:"path_taken"`
	calc.Result
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body translateBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	in, err := s.Router.Interpret(r.Context(), body.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res := s.Evaluator.Evaluate(r.Context(), calc.Request{Expr: in.Expr, Mode: in.Mode})
	s.recordHistory(r, body.SessionID, in.Expr, res)

	s.respondJSON(w, http.StatusOK, translateResponse{
		Expr:      in.Expr,
		Mode:      in.Mode,
		Reasoning: in.Reasoning,
		PathTaken: in.PathTaken,
		Result:    res,
	})
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if s.Jobs == nil {
		s.respondError(w, r, errJobsDisabled)
		return
	}

	var body evaluateBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if body.Expr == "" {
		s.respondError(w, r, badRequestf("expr is required"))
		return
	}

	var sessionID *int64
	owner := s.principal(r)
	if owner != "" {
		sessionID = body.Settings.SessionID
	}

	status, err := s.Jobs.Submit(r.Context(), body.request(), sessionID, owner)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, status)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.Jobs == nil {
		s.respondError(w, r, errJobsDisabled)
		return
	}

	status, err := s.Jobs.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}
