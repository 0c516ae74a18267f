package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

type principalHandler func(w http.ResponseWriter, r *http.Request, owner string)

// principal returns the caller named by the principal header.
func (s *Server) principal(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(s.opts.PrincipalHeader))
}

// withPrincipal rejects requests without a principal.
func (s *Server) withPrincipal(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := s.principal(r)
		if owner == "" {
			s.respondError(w, r, errMissingPrincipal)
			return
		}
		next(w, r, owner)
	}
}

// cors answers preflight requests and sets headers for allowed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := slices.Contains(s.opts.CORSOrigins, "*")
	allowHeaders := strings.Join([]string{"Content-Type", "Authorization", s.opts.PrincipalHeader}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(s.opts.CORSOrigins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// logRequests logs method, path, status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		s.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sr.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// recoverer turns handler panics into 500 responses.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
				)
				s.respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
