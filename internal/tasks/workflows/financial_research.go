package workflows

import (
	"encoding/json"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"minerva/internal/adapters/config"
	"minerva/internal/agents"
	"minerva/internal/agents/schemas"
	"minerva/internal/tasks"
	"minerva/internal/tasks/activities"
	"minerva/pkg/errors"
)

const (
	// WorkflowName is the registered name of the research pipeline.
	WorkflowName = "FinancialResearchWorkflow"

	// QueryGetFinalReport returns the finalized report, nil while running.
	QueryGetFinalReport = "get_final_report"
)

// ResearchInput starts one research run.
type ResearchInput struct {
	Query string `json:"query"`
}

// Research is the durable pipeline definition. It sequences the seven agent
// roles, fans out agent creation and per-search execution, fans in the risk
// and fundamentals analyses and assembles the final report.
type Research struct {
	retry config.RetryConfig
	plan  config.PlanConfig
}

// NewResearch builds the workflow definition with its policy configuration.
func NewResearch(retry config.RetryConfig, plan config.PlanConfig) *Research {
	return &Research{retry: retry, plan: plan}
}

// Run executes the pipeline. Stages are strictly ordered; retries happen only
// inside individual activity invocations, never at the pipeline level.
func (w *Research) Run(ctx workflow.Context, input ResearchInput) (*schemas.ResearchReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting financial research workflow", "query", input.Query)

	// Queryable while running: nil until Finalize completes, never partial.
	var report *schemas.ResearchReport
	if err := workflow.SetQueryHandler(ctx, QueryGetFinalReport, func() (*schemas.ResearchReport, error) {
		return report, nil
	}); err != nil {
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, tasks.ActivityOptions(w.retry))
	var a *activities.Activities

	// Bootstrap: create one agent per role, all in parallel. Futures are
	// issued before any is awaited; the join requires all seven.
	createFutures := make([]workflow.Future, len(agents.AllRoles))
	for i, role := range agents.AllRoles {
		createFutures[i] = workflow.ExecuteActivity(ctx, a.CreateAgent, activities.CreateAgentInput{Role: role})
	}

	handles := make(map[agents.Role]activities.AgentHandle, len(agents.AllRoles))
	for i, role := range agents.AllRoles {
		var handle activities.AgentHandle
		if err := createFutures[i].Get(ctx, &handle); err != nil {
			return nil, fmt.Errorf("create %s agent: %w", role, err)
		}
		handles[role] = handle
	}
	logger.Info("Bootstrapped agents", "count", len(handles))

	// Wire: the writer delegates follow-up calls to the specialists. Must
	// complete before the writer is ever invoked.
	err := workflow.ExecuteActivity(ctx, a.UpdateAgent, activities.UpdateAgentInput{
		AgentID:  handles[agents.RoleWriter].ID,
		Handoffs: []string{handles[agents.RoleFundamentals].ID, handles[agents.RoleRisk].ID},
	}).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("wire writer handoffs: %w", err)
	}

	// PriceAnalysis: the analyst sees the original query.
	priceAnalysis, err := runTurn[schemas.AnalysisSummary](ctx, a, handles[agents.RoleAnalyst], input.Query)
	if err != nil {
		return nil, fmt.Errorf("price analysis: %w", err)
	}

	// Plan: the planner decides which searches to run.
	searchPlan, err := runTurn[schemas.SearchPlan](ctx, a, handles[agents.RolePlanner], input.Query)
	if err != nil {
		return nil, fmt.Errorf("plan searches: %w", err)
	}
	if n := len(searchPlan.Searches); n < w.plan.MinSearches || n > w.plan.MaxSearches {
		cause := errors.Wrapf(errors.ErrPlanOutOfRange,
			"search plan has %d tasks, want %d-%d", n, w.plan.MinSearches, w.plan.MaxSearches)
		return nil, temporal.NewApplicationError(cause.Error(), tasks.ErrTypeConfiguration)
	}
	logger.Info("Search plan ready", "searches", len(searchPlan.Searches))

	// Search fan-out: one turn per planned search, dispatched concurrently.
	// Results are applied in task order regardless of completion order.
	searchFutures := make([]workflow.Future, len(searchPlan.Searches))
	for i, item := range searchPlan.Searches {
		searchFutures[i] = executeTurn(ctx, a, handles[agents.RoleSearch], item.Query)
	}

	searchResults := make([]schemas.AnalysisSummary, len(searchPlan.Searches))
	for i := range searchFutures {
		summary, err := awaitTurn[schemas.AnalysisSummary](ctx, searchFutures[i])
		if err != nil {
			return nil, fmt.Errorf("search %d of %d: %w", i+1, len(searchFutures), err)
		}
		searchResults[i] = summary
	}
	findings := schemas.FormatSearchResults(searchResults)

	// Synthesize: fundamentals and risk both read the same findings block.
	fundamentalsFuture := executeTurn(ctx, a, handles[agents.RoleFundamentals], findings)
	riskFuture := executeTurn(ctx, a, handles[agents.RoleRisk], findings)

	fundamentalsAnalysis, err := awaitTurn[schemas.AnalysisSummary](ctx, fundamentalsFuture)
	if err != nil {
		return nil, fmt.Errorf("fundamentals analysis: %w", err)
	}
	riskAnalysis, err := awaitTurn[schemas.AnalysisSummary](ctx, riskFuture)
	if err != nil {
		return nil, fmt.Errorf("risk analysis: %w", err)
	}

	// Write: structured payload assembling the three analyses.
	writerPayload, err := json.Marshal(schemas.WriterInput{
		PricesAnalysis:       priceAnalysis,
		FundamentalsAnalysis: fundamentalsAnalysis,
		RiskAnalysis:         riskAnalysis,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal writer input: %w", err)
	}
	reportData, err := runTurn[schemas.ReportData](ctx, a, handles[agents.RoleWriter], string(writerPayload))
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	// Verify: the verifier reads the report as serialized text.
	reportPayload, err := json.Marshal(reportData)
	if err != nil {
		return nil, fmt.Errorf("marshal report for verification: %w", err)
	}
	verification, err := runTurn[schemas.VerificationResult](ctx, a, handles[agents.RoleVerifier], string(reportPayload))
	if err != nil {
		return nil, fmt.Errorf("verify report: %w", err)
	}

	// Finalize: assemble and expose the composite result.
	result := &schemas.ResearchReport{
		SearchPlan:           searchPlan,
		Report:               reportData,
		Verification:         verification,
		RiskAnalysis:         riskAnalysis,
		FundamentalsAnalysis: fundamentalsAnalysis,
		PriceAnalysis:        priceAnalysis,
		SearchResults:        searchResults,
	}

	persistErr := workflow.ExecuteActivity(ctx, a.PersistReport, activities.PersistReportInput{
		WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID,
		Report:     *result,
	}).Get(ctx, nil)
	if persistErr != nil {
		// The report stays queryable through the workflow itself.
		logger.Warn("Failed to cache finalized report", "error", persistErr)
	}

	report = result
	logger.Info("Financial research workflow complete",
		"searches", len(searchResults), "verified", verification.Verified)
	return report, nil
}

// executeTurn schedules one conversation turn for the handle's role.
func executeTurn(ctx workflow.Context, a *activities.Activities, handle activities.AgentHandle, input string) workflow.Future {
	cfg := agents.DefaultRoleConfigs[handle.Role]
	return workflow.ExecuteActivity(ctx, a.RunTurn, activities.RunTurnInput{
		AgentID: handle.ID,
		Role:    handle.Role,
		Schema:  cfg.ResponseSchema,
		Input:   input,
	})
}

// awaitTurn joins a turn future and decodes its validated payload.
func awaitTurn[T any](ctx workflow.Context, future workflow.Future) (T, error) {
	var zero T

	var result activities.RunTurnResult
	if err := future.Get(ctx, &result); err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(result.Output, &value); err != nil {
		return zero, fmt.Errorf("decode turn output: %w", err)
	}
	return value, nil
}

// runTurn schedules a turn and waits for its typed result.
func runTurn[T any](ctx workflow.Context, a *activities.Activities, handle activities.AgentHandle, input string) (T, error) {
	return awaitTurn[T](ctx, executeTurn(ctx, a, handle, input))
}
