package research

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"minerva/internal/agents/schemas"
	"minerva/internal/metrics"
	"minerva/internal/tasks/workflows"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// Runner is the slice of the workflow engine client the handler needs.
type Runner interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// ReportCache serves finalized reports without touching the workflow engine.
type ReportCache interface {
	Get(ctx context.Context, workflowID string) (*schemas.ResearchReport, error)
}

// Handler exposes the start/result endpoints for research runs.
type Handler struct {
	log          *logger.Logger
	runner       Runner
	cache        ReportCache
	taskQueue    string
	queryTimeout time.Duration
}

// New creates the research API handler.
func New(log *logger.Logger, runner Runner, cache ReportCache, taskQueue string, queryTimeout time.Duration) *Handler {
	return &Handler{
		log:          log,
		runner:       runner,
		cache:        cache,
		taskQueue:    taskQueue,
		queryTimeout: queryTimeout,
	}
}

// Register mounts the handler's routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /research/start", h.HandleStart)
	mux.HandleFunc("GET /research/result", h.HandleResult)
}

type startRequest struct {
	Query string `json:"query"`
}

type startResponse struct {
	WorkflowID string `json:"workflow_id"`
}

// HandleStart kicks off a research run and returns its workflow ID
// immediately. The pipeline executes asynchronously.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	workflowID := "financial-research-" + uuid.NewString()
	_, err := h.runner.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: h.taskQueue,
	}, workflows.WorkflowName, workflows.ResearchInput{Query: req.Query})
	if err != nil {
		h.log.Errorf("Failed to start research workflow: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start workflow")
		return
	}

	metrics.WorkflowsStarted.Inc()
	h.log.Infof("Started research workflow %s", workflowID)
	writeJSON(w, http.StatusOK, startResponse{WorkflowID: workflowID})
}

type runningResponse struct {
	Status string `json:"status"`
}

// HandleResult returns the finalized report for a run, or 202 while it is
// still in progress. The workflow query is bounded client-side so polling
// never blocks the pipeline.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	workflowID := r.URL.Query().Get("workflow_id")
	if workflowID == "" {
		writeError(w, http.StatusBadRequest, "workflow_id is required")
		return
	}

	// Finished runs are served from the cache without engine round-trips.
	if h.cache != nil {
		if report, err := h.cache.Get(r.Context(), workflowID); err == nil {
			metrics.ResultQueries.WithLabelValues("ready").Inc()
			writeJSON(w, http.StatusOK, report)
			return
		} else if !errors.Is(err, errors.ErrNotFound) {
			h.log.Warnf("Report cache lookup failed for %s: %v", workflowID, err)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	encoded, err := h.runner.QueryWorkflow(ctx, workflowID, "", workflows.QueryGetFinalReport)
	if err != nil {
		metrics.ResultQueries.WithLabelValues("error").Inc()
		h.log.Errorf("Failed to query workflow %s: %v", workflowID, err)
		writeError(w, http.StatusInternalServerError, "failed to query workflow")
		return
	}

	var report *schemas.ResearchReport
	if err := encoded.Get(&report); err != nil {
		metrics.ResultQueries.WithLabelValues("error").Inc()
		h.log.Errorf("Failed to decode query result for %s: %v", workflowID, err)
		writeError(w, http.StatusInternalServerError, "failed to decode result")
		return
	}

	if report == nil {
		metrics.ResultQueries.WithLabelValues("running").Inc()
		writeJSON(w, http.StatusAccepted, runningResponse{Status: "running"})
		return
	}

	metrics.ResultQueries.WithLabelValues("ready").Inc()
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
