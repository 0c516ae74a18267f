package api

import (
	"context"
	"net/http"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/plot"
	"github.com/aescanero/dago-node-calculator/internal/router"
	"github.com/aescanero/dago-node-calculator/internal/session"
	"github.com/aescanero/dago-node-calculator/internal/units"
	"github.com/aescanero/dago-node-calculator/internal/worker"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Recorder persists history and graph rows off the request path.
type Recorder interface {
	RecordHistory(owner string, sessionID int64, input string, output any) bool
	RecordGraph(owner string, g session.Graph) bool
}

// JobQueue submits evaluations to background workers.
type JobQueue interface {
	Submit(ctx context.Context, req calc.Request, sessionID *int64, principal string) (*worker.JobStatus, error)
	Status(ctx context.Context, id string) (*worker.JobStatus, error)
}

// Deps are the components served by the API. Jobs may be nil when async
// evaluation is disabled.
type Deps struct {
	Evaluator *calc.Evaluator
	Router    *router.Router
	Converter *units.Converter
	Sampler   *plot.Sampler
	Store     *session.Store
	Recorder  Recorder
	Jobs      JobQueue
}

// Options configure the HTTP surface.
type Options struct {
	CORSOrigins     []string
	PrincipalHeader string
	Version         string
}

// Server is the calculator HTTP API.
type Server struct {
	Deps
	opts   Options
	logger *zap.Logger
}

// NewServer creates the API server.
func NewServer(deps Deps, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PrincipalHeader == "" {
		opts.PrincipalHeader = "X-User-ID"
	}
	return &Server{
		Deps:   deps,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns the routes wrapped in recovery, logging and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/compute/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /api/compute/cas/{op}", s.handleCAS)
	mux.HandleFunc("POST /api/compute/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/compute/jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /api/compute/jobs/{id}", s.handleJobStatus)

	mux.HandleFunc("POST /api/units/convert", s.handleConvert)
	mux.HandleFunc("GET /api/units/categories", s.handleCategories)

	mux.HandleFunc("POST /api/stats/descriptive", s.handleDescriptive)
	mux.HandleFunc("POST /api/stats/regression", s.handleRegression)
	mux.HandleFunc("POST /api/stats/distribution", s.handleDistribution)
	mux.HandleFunc("POST /api/stats/hypothesis", s.handleHypothesis)
	mux.HandleFunc("POST /api/stats/histogram", s.handleHistogram)
	mux.HandleFunc("POST /api/stats/visualization/histogram", s.handleHistogram)

	mux.HandleFunc("POST /api/graph/plot", s.handlePlot)
	mux.HandleFunc("GET /api/graph/saved/{id}", s.withPrincipal(s.handleGetGraph))
	mux.HandleFunc("DELETE /api/graph/saved/{id}", s.withPrincipal(s.handleDeleteGraph))

	mux.HandleFunc("POST /api/sessions", s.withPrincipal(s.handleCreateSession))
	mux.HandleFunc("POST /api/sessions/{$}", s.withPrincipal(s.handleCreateSession))
	mux.HandleFunc("GET /api/sessions", s.withPrincipal(s.handleListSessions))
	mux.HandleFunc("GET /api/sessions/{$}", s.withPrincipal(s.handleListSessions))
	mux.HandleFunc("GET /api/sessions/{id}", s.withPrincipal(s.handleGetSession))
	mux.HandleFunc("PUT /api/sessions/{id}", s.withPrincipal(s.handleUpdateSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.withPrincipal(s.handleDeleteSession))

	mux.HandleFunc("POST /api/sessions/variables/{$}", s.withPrincipal(s.handleCreateVariable))
	mux.HandleFunc("GET /api/sessions/variables/{id}", s.withPrincipal(s.handleGetVariable))
	mux.HandleFunc("PUT /api/sessions/variables/{id}", s.withPrincipal(s.handleUpdateVariable))
	mux.HandleFunc("DELETE /api/sessions/variables/{id}", s.withPrincipal(s.handleDeleteVariable))

	mux.HandleFunc("POST /api/sessions/programs/{$}", s.withPrincipal(s.handleCreateProgram))
	mux.HandleFunc("GET /api/sessions/programs/{id}", s.withPrincipal(s.handleGetProgram))
	mux.HandleFunc("PUT /api/sessions/programs/{id}", s.withPrincipal(s.handleUpdateProgram))
	mux.HandleFunc("DELETE /api/sessions/programs/{id}", s.withPrincipal(s.handleDeleteProgram))

	mux.HandleFunc("POST /api/sessions/history/{$}", s.withPrincipal(s.handleAddHistory))
	mux.HandleFunc("GET /api/sessions/history/{id}", s.withPrincipal(s.handleListHistory))

	return s.recoverer(s.logRequests(s.cors(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.opts.Version,
	})
}
