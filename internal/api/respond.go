package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/plot"
	"github.com/aescanero/dago-node-calculator/internal/router"
	"github.com/aescanero/dago-node-calculator/internal/session"
	"github.com/aescanero/dago-node-calculator/internal/stats"
	"github.com/aescanero/dago-node-calculator/internal/units"
	"github.com/aescanero/dago-node-calculator/internal/worker"
	"go.uber.org/zap"
)

var (
	errMissingPrincipal = errors.New("not authenticated")
	errJobsDisabled     = errors.New("asynchronous jobs are disabled")
	errBadRequest       = errors.New("bad request")
)

// badRequestf reports malformed input.
func badRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMissingPrincipal):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotFound), errors.Is(err, worker.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, router.ErrLLMUnavailable), errors.Is(err, errJobsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, router.ErrUntranslatable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calc.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBadRequest),
		calc.IsClientError(err),
		errors.Is(err, stats.ErrInvalidInput),
		errors.Is(err, units.ErrMissingField),
		errors.Is(err, units.ErrUnknownCategory),
		errors.Is(err, units.ErrUnknownUnit),
		errors.Is(err, units.ErrOverflow),
		errors.Is(err, plot.ErrInvalidPlot),
		errors.Is(err, session.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {"detail": ...}. Server errors are logged and their
// cause is not exposed.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	detail := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		detail = "Internal server error"
	}
	s.respondJSON(w, code, map[string]string{"detail": detail})
}

// respondJSON writes a JSON response. The body is encoded before the header
// is sent so that an unencodable value becomes a 500.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		buf.Reset()
		statusCode = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"detail": "Internal server error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestf("empty request body")
		}
		return badRequestf("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequestf("invalid JSON: trailing data")
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequestf("invalid id: %q", raw)
	}
	return id, nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequestf("%s must be a non-negative integer", name)
	}
	return n, nil
}
