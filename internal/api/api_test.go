package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/eval/template"
	"github.com/aescanero/dago-node-calculator/internal/plot"
	"github.com/aescanero/dago-node-calculator/internal/router"
	"github.com/aescanero/dago-node-calculator/internal/session"
	"github.com/aescanero/dago-node-calculator/internal/units"
	"github.com/aescanero/dago-node-calculator/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyCall struct {
	owner     string
	sessionID int64
	input     string
}

type fakeRecorder struct {
	mu      sync.Mutex
	history []historyCall
	graphs  []session.Graph
}

func (f *fakeRecorder) RecordHistory(owner string, sessionID int64, input string, _ any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, historyCall{owner, sessionID, input})
	return true
}

func (f *fakeRecorder) RecordGraph(_ string, g session.Graph) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graphs = append(f.graphs, g)
	return true
}

type fakeJobs struct {
	submitted []calc.Request
}

func (f *fakeJobs) Submit(_ context.Context, req calc.Request, _ *int64, _ string) (*worker.JobStatus, error) {
	f.submitted = append(f.submitted, req)
	return &worker.JobStatus{JobID: "job-1", Status: worker.StatusQueued}, nil
}

func (f *fakeJobs) Status(_ context.Context, id string) (*worker.JobStatus, error) {
	if id != "job-1" {
		return nil, worker.ErrJobNotFound
	}
	return &worker.JobStatus{JobID: id, Status: worker.StatusCompleted}, nil
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	store    *session.Store
	recorder *fakeRecorder
	jobs     *fakeJobs
}

func newTestEnv(t *testing.T, complete router.CompletionFunc) *testEnv {
	t.Helper()

	store, err := session.Open(filepath.Join(t.TempDir(), "calc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rt, err := router.NewRouter(router.DefaultConfig(), complete, nil)
	require.NoError(t, err)

	table, err := units.DefaultTable()
	require.NoError(t, err)

	env := &testEnv{store: store, recorder: &fakeRecorder{}, jobs: &fakeJobs{}}
	env.server = NewServer(Deps{
		Evaluator: calc.NewEvaluator(calc.DefaultOptions(), rt, nil),
		Router:    rt,
		Converter: units.NewConverter(table, template.NewEngine()),
		Sampler:   plot.NewSampler(5000, nil),
		Store:     store,
		Recorder:  env.recorder,
		Jobs:      env.jobs,
	}, Options{
		CORSOrigins: []string{"http://localhost:5173"},
		Version:     "test",
	}, nil)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "version": "test"}, decode(t, rec))
}

func TestEvaluate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "", map[string]any{
		"expr":     "x^2 + y",
		"settings": map[string]any{"variables": map[string]any{"x": 3, "y": 100}},
		"variables": map[string]any{
			"y": 1,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "number", out["type"])
	assert.InDelta(t, 10, out["result"], 1e-12)
	assert.Empty(t, env.recorder.history, "no session, no history")
}

func TestEvaluate_ErrorIsResult(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "", map[string]any{"expr": "1/0"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["type"])
}

func TestEvaluate_NonFiniteIsResult(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, src := range []string{
		"det([[1e200, 0], [0, 1e200]])",
		"[[1e200, 0], [0, 1e200]] * [[1e200, 0], [0, 1e200]]",
		"[[1, 2], [3]]",
	} {
		t.Run(src, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "", map[string]any{
				"expr": src, "mode": "matrix",
			})
			require.Equal(t, http.StatusOK, rec.Code)
			out := decode(t, rec)
			assert.Equal(t, "error", out["type"])
			assert.NotEmpty(t, out["result"])
		})
	}
}

func TestRespondJSON_EncodeFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.server.respondJSON(rec, http.StatusOK, map[string]any{"result": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["detail"])
}

func TestEvaluate_RecordsHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "alice", map[string]any{
		"expr":     "2 + 2",
		"settings": map[string]any{"session_id": 5},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.recorder.history, 1)
	assert.Equal(t, historyCall{"alice", 5, "2 + 2"}, env.recorder.history[0])

	// anonymous callers are never recorded
	env.do(t, http.MethodPost, "/api/compute/evaluate", "", map[string]any{
		"expr":     "2 + 2",
		"settings": map[string]any{"session_id": 5},
	})
	assert.Len(t, env.recorder.history, 1)
}

func TestEvaluate_AutoMode(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "", map[string]any{
		"expr": "det([[1, 2], [3, 4]])",
		"mode": "auto",
	})
	out := decode(t, rec)
	assert.Equal(t, "number", out["type"])
	assert.InDelta(t, -2, out["result"], 1e-12)
}

func TestEvaluate_BadJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/compute/evaluate", "", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "invalid JSON")

	rec = env.do(t, http.MethodPost, "/api/compute/evaluate", "", `{"expr":"1"} {"expr":"2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCAS(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/compute/cas/solve", "", map[string]any{"expr": "x^2 - 4 = 0"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, []any{"-2", "2"}, out["result"])

	rec = env.do(t, http.MethodPost, "/api/compute/cas/differentiate", "", map[string]any{
		"expr":     "t^3",
		"settings": map[string]any{"variable": "t", "order": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode(t, rec)
	assert.Equal(t, "6*t", out["result"])
	assert.Equal(t, "expression", out["type"])

	rec = env.do(t, http.MethodPost, "/api/compute/cas/integrate", "", map[string]any{
		"expr":   "x^2",
		"limits": []any{0, 1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1/3", decode(t, rec)["result"])
}

func TestCAS_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/compute/cas/tensor", "", map[string]any{"expr": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/compute/cas/simplify", "", map[string]any{"expr": "x +"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["detail"])
}

func TestTranslate(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/compute/translate", "", map[string]any{"text": "two plus two"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env = newTestEnv(t, func(context.Context, string) (string, error) { return "2 + 2", nil })
	rec = env.do(t, http.MethodPost, "/api/compute/translate", "bob", map[string]any{
		"text":       "two plus two",
		"session_id": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "2 + 2", out["expr"])
	assert.Equal(t, "standard", out["mode"])
	assert.InDelta(t, 4, out["result"], 1e-12)
	require.Len(t, env.recorder.history, 1)
	assert.Equal(t, int64(9), env.recorder.history[0].sessionID)

	env = newTestEnv(t, func(context.Context, string) (string, error) { return "sin(", nil })
	rec = env.do(t, http.MethodPost, "/api/compute/translate", "", map[string]any{"text": "sine of"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestJobs(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/compute/jobs", "", map[string]any{"expr": "2^10"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", decode(t, rec)["status"])
	require.Len(t, env.jobs.submitted, 1)

	rec = env.do(t, http.MethodGet, "/api/compute/jobs/job-1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/compute/jobs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/compute/jobs", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.server.Jobs = nil
	env.handler = env.server.Handler()
	rec = env.do(t, http.MethodPost, "/api/compute/jobs", "", map[string]any{"expr": "1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnits(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/units/convert", "", map[string]any{
		"value": 1, "from_unit": "kilometer", "to_unit": "meter", "category": "length",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.InDelta(t, 1000, out["result"], 1e-9)
	assert.Equal(t, "kilometer", out["from_unit"])

	rec = env.do(t, http.MethodPost, "/api/units/convert", "", map[string]any{
		"value": 0, "from_unit": "celsius", "to_unit": "fahrenheit", "category": "temperature",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 32, decode(t, rec)["result"], 1e-9)

	rec = env.do(t, http.MethodPost, "/api/units/convert", "", map[string]any{
		"value": 1, "from_unit": "parsec", "to_unit": "meter", "category": "length",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/units/convert", "", map[string]any{
		"from_unit": "meter", "to_unit": "meter", "category": "length",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/units/convert", "", map[string]any{
		"value": 1e308, "from_unit": "kilometer", "to_unit": "millimeter", "category": "length",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "out of range")

	rec = env.do(t, http.MethodGet, "/api/units/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["length"], "meter")
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/stats/descriptive", "", map[string]any{"data": "1, 2, 3, 4, 5, 6, 7, 8"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.InDelta(t, 4.5, out["mean"], 1e-12)
	assert.InDelta(t, 8, out["count"], 0)

	rec = env.do(t, http.MethodPost, "/api/stats/descriptive", "", map[string]any{"data": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stats/regression", "", map[string]any{"data": "1,3; 2,5; 3,7", "type": "linear"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 2, decode(t, rec)["slope"], 1e-9)

	rec = env.do(t, http.MethodPost, "/api/stats/distribution", "", map[string]any{"type": "normal", "x": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/stats/distribution", "", map[string]any{"type": "cauchy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stats/hypothesis", "", map[string]any{
		"type": "anova", "group1": "1,2,3", "group2": "7,8,9",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "anova", decode(t, rec)["type"])
}

func TestStats_Histogram(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/stats/histogram", "", map[string]any{"data": []float64{1, 2, 2, 3}, "bins": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["counts"], 3)

	rec = env.do(t, http.MethodPost, "/api/stats/visualization/histogram", "", map[string]any{"data": "1 2 3", "bins": "auto"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/stats/histogram", "", map[string]any{"data": "1 2 3", "bins": "many"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stats/histogram", "", map[string]any{"data": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlot(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/graph/plot", "carol", map[string]any{
		"expr":     "x^2",
		"domain":   map[string]any{"x_min": -1, "x_max": 1, "num_points": 3},
		"settings": map[string]any{"session_id": 2, "name": "parabola"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["plot_data"].(map[string]any)
	assert.Equal(t, []any{-1.0, 0.0, 1.0}, data["x"])
	assert.Equal(t, []any{1.0, 0.0, 1.0}, data["y"])

	require.Len(t, env.recorder.graphs, 1)
	g := env.recorder.graphs[0]
	assert.Equal(t, int64(2), g.SessionID)
	assert.Equal(t, "parabola", g.Name)
	assert.Equal(t, "2d", g.Type)
	assert.Contains(t, string(g.Parameters), `"domain"`)

	rec = env.do(t, http.MethodPost, "/api/graph/plot", "", map[string]any{"expr": "x", "type": "4d"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedGraphs(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	sess, err := env.store.CreateSession(ctx, "dave", "")
	require.NoError(t, err)
	g, err := env.store.SaveGraph(ctx, "dave", session.Graph{
		SessionID: sess.ID, Type: "2d", Expression: "x", Parameters: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	path := "/api/graph/saved/" + itoa(g.ID)

	rec := env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, path, "mallory", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path, "dave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Untitled Graph", decode(t, rec)["name"])

	rec = env.do(t, http.MethodDelete, path, "dave", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, "dave", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Graph not found", decode(t, rec)["detail"])
}

func TestSessions(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/sessions/", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/", "erin", map[string]any{"title": "Homework"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decode(t, rec)
	assert.Equal(t, "Homework", sess["title"])
	assert.Equal(t, "erin", sess["user_id"])
	id := itoa(int64(sess["id"].(float64)))

	rec = env.do(t, http.MethodPost, "/api/sessions", "erin", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Untitled Session", decode(t, rec)["title"])

	rec = env.do(t, http.MethodGet, "/api/sessions/?limit=1", "erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Homework", list[0]["title"])

	rec = env.do(t, http.MethodGet, "/api/sessions/?skip=-1", "erin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sessions/"+id, "erin", map[string]any{"title": "Exam"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Exam", decode(t, rec)["title"])

	rec = env.do(t, http.MethodPut, "/api/sessions/"+id, "frank", map[string]any{"title": "Mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/variables/", "erin", map[string]any{
		"session_id": sess["id"], "name": "k", "value_json": map[string]any{"value": 42},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	varID := itoa(int64(decode(t, rec)["id"].(float64)))

	rec = env.do(t, http.MethodPut, "/api/sessions/variables/"+varID, "erin", map[string]any{
		"name": "k", "value_json": map[string]any{"value": 43},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"value": 43.0}, decode(t, rec)["value_json"])

	rec = env.do(t, http.MethodPost, "/api/sessions/variables/", "erin", map[string]any{
		"session_id": sess["id"], "name": "", "value_json": map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/programs/", "erin", map[string]any{
		"session_id": sess["id"], "language": "calc", "source": "x^2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	program := decode(t, rec)
	assert.Equal(t, "Untitled Program", program["name"])

	rec = env.do(t, http.MethodPost, "/api/sessions/history/", "erin", map[string]any{
		"session_id": sess["id"], "input": "1+1", "output_json": map[string]any{"result": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/sessions/history/"+id, "erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "1+1", history[0]["input"])

	rec = env.do(t, http.MethodGet, "/api/sessions/"+id, "erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	full := decode(t, rec)
	assert.Len(t, full["variables"], 1)
	assert.Len(t, full["programs"], 1)
	assert.Len(t, full["history_items"], 1)

	rec = env.do(t, http.MethodDelete, "/api/sessions/"+id, "erin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sessions/variables/"+varID, "erin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sessions/abc", "erin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/compute/evaluate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.server.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["detail"])
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
