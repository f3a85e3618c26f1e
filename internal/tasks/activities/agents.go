package activities

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"

	"minerva/internal/adapters/mistral"
	"minerva/internal/adapters/prompts"
	"minerva/internal/agents"
	"minerva/internal/agents/schemas"
	"minerva/internal/metrics"
	"minerva/internal/tasks"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// ReportStore persists finalized reports outside the workflow engine.
type ReportStore interface {
	Save(ctx context.Context, workflowID string, report *schemas.ResearchReport) error
}

// Deps carries the external collaborators the activities talk to.
type Deps struct {
	Platform mistral.Client
	Prompts  prompts.Source
	Reports  ReportStore
	Roles    map[agents.Role]agents.RoleConfig
	Mounts   map[agents.PromptServer]string
	Log      *logger.Logger
}

// Activities implements the remote operations the research workflow schedules.
// Every method is a single remote call wrapped in the shared retry policy;
// the engine's exactly-once activity semantics deduplicate side effects.
type Activities struct {
	deps Deps
}

// New creates the activity set.
func New(deps Deps) *Activities {
	return &Activities{deps: deps}
}

// CreateAgentInput selects the role to create an agent for.
type CreateAgentInput struct {
	Role agents.Role `json:"role"`
}

// AgentHandle identifies a created remote agent instance. Owned by the
// workflow run that created it and never reused across runs.
type AgentHandle struct {
	ID   string      `json:"id"`
	Role agents.Role `json:"role"`
}

// CreateAgent fetches the role's instructions from the prompt source and
// creates a remote agent instance configured for the role.
func (a *Activities) CreateAgent(ctx context.Context, input CreateAgentInput) (AgentHandle, error) {
	started := time.Now()

	handle, err := a.createAgent(ctx, input)

	observe("CreateAgent", string(input.Role), started, err)
	return handle, err
}

func (a *Activities) createAgent(ctx context.Context, input CreateAgentInput) (AgentHandle, error) {
	cfg, ok := a.deps.Roles[input.Role]
	if !ok {
		return AgentHandle{}, nonRetryable(tasks.ErrTypeConfiguration,
			errors.Wrapf(errors.ErrInvalidInput, "unknown agent role %q", input.Role))
	}

	mount, ok := a.deps.Mounts[cfg.PromptServer]
	if !ok {
		return AgentHandle{}, nonRetryable(tasks.ErrTypeConfiguration,
			errors.Wrapf(errors.ErrInvalidInput, "no prompt mount configured for %q", cfg.PromptServer))
	}

	instructions, err := a.deps.Prompts.GetPrompt(ctx, mount, cfg.PromptName)
	if err != nil {
		if errors.Is(err, errors.ErrPromptNotFound) {
			return AgentHandle{}, nonRetryable(tasks.ErrTypeConfiguration, err)
		}
		return AgentHandle{}, err
	}
	if strings.TrimSpace(instructions) == "" {
		// Retrying will not fix an empty prompt.
		return AgentHandle{}, nonRetryable(tasks.ErrTypeConfiguration,
			errors.Wrapf(errors.ErrEmptyInstructions, "prompt %q", cfg.PromptName))
	}

	responseFormat, err := schemas.ResponseFormat(cfg.ResponseSchema)
	if err != nil {
		return AgentHandle{}, nonRetryable(tasks.ErrTypeConfiguration, err)
	}

	toolSpecs := make([]mistral.ToolSpec, 0, len(cfg.Tools))
	for _, tool := range cfg.Tools {
		toolSpecs = append(toolSpecs, mistral.ToolSpec{Type: string(tool)})
	}

	id, err := a.deps.Platform.CreateAgent(ctx, mistral.CreateAgentRequest{
		Model:          cfg.Model,
		Name:           cfg.Name,
		Description:    cfg.Description,
		Instructions:   instructions,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		Tools:          toolSpecs,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return AgentHandle{}, platformError(err)
	}

	a.deps.Log.Infof("Created agent %q (id: %s)", cfg.Name, id)
	return AgentHandle{ID: id, Role: input.Role}, nil
}

// UpdateAgentInput sets the hand-off edges of an existing agent.
type UpdateAgentInput struct {
	AgentID  string   `json:"agent_id"`
	Handoffs []string `json:"handoffs"`
}

// UpdateAgent wires hand-off edges on a created agent. Idempotent: re-applying
// the same edge set changes nothing.
func (a *Activities) UpdateAgent(ctx context.Context, input UpdateAgentInput) error {
	started := time.Now()

	err := a.deps.Platform.UpdateAgent(ctx, input.AgentID, input.Handoffs)
	if err != nil {
		err = platformError(err)
	}

	observe("UpdateAgent", "", started, err)
	return err
}

// RunTurnInput starts one conversation turn against an agent.
type RunTurnInput struct {
	AgentID string      `json:"agent_id"`
	Role    agents.Role `json:"role"`
	Schema  string      `json:"schema"`
	Input   string      `json:"input"`
}

// RunTurnResult carries the validated structured reply of one turn.
type RunTurnResult struct {
	Output       json.RawMessage `json:"output"`
	Model        string          `json:"model,omitempty"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
}

// RunTurn runs one conversation turn, extracts the final assistant message and
// validates it against the declared schema before returning it.
func (a *Activities) RunTurn(ctx context.Context, input RunTurnInput) (RunTurnResult, error) {
	started := time.Now()

	result, err := a.runTurn(ctx, input)

	observe("RunTurn", string(input.Role), started, err)
	if err == nil {
		metrics.AgentTokens.WithLabelValues(string(input.Role), "input").Add(float64(result.InputTokens))
		metrics.AgentTokens.WithLabelValues(string(input.Role), "output").Add(float64(result.OutputTokens))
	}
	return result, err
}

func (a *Activities) runTurn(ctx context.Context, input RunTurnInput) (RunTurnResult, error) {
	conv, err := a.deps.Platform.StartConversation(ctx, input.AgentID, input.Input)
	if err != nil {
		return RunTurnResult{}, platformError(err)
	}

	final, ok := finalAssistantMessage(conv.Outputs)
	if !ok {
		return RunTurnResult{}, nonRetryable(tasks.ErrTypeSchemaValidation,
			errors.Wrapf(errors.ErrNoAssistantMessage, "agent %s", input.AgentID))
	}

	if _, err := schemas.Validate(input.Schema, []byte(final.Content)); err != nil {
		// Repeating an identical prompt is unlikely to fix a malformed reply.
		return RunTurnResult{}, nonRetryable(tasks.ErrTypeSchemaValidation, err)
	}

	a.deps.Log.Infof("Agent %s turn complete (model: %s, tokens: %d in / %d out)",
		input.AgentID, final.Model, conv.Usage.PromptTokens, conv.Usage.CompletionTokens)

	return RunTurnResult{
		Output:       json.RawMessage(final.Content),
		Model:        final.Model,
		InputTokens:  conv.Usage.PromptTokens,
		OutputTokens: conv.Usage.CompletionTokens,
	}, nil
}

// PersistReportInput stores a finalized report for the query interface.
type PersistReportInput struct {
	WorkflowID string                 `json:"workflow_id"`
	Report     schemas.ResearchReport `json:"report"`
}

// PersistReport caches the finalized report. Safe to retry: saving the same
// report twice is observationally identical.
func (a *Activities) PersistReport(ctx context.Context, input PersistReportInput) error {
	if a.deps.Reports != nil {
		if err := a.deps.Reports.Save(ctx, input.WorkflowID, &input.Report); err != nil {
			return err
		}
	}
	metrics.WorkflowsCompleted.Inc()
	return nil
}

// finalAssistantMessage returns the last assistant message entry, the one
// carrying the final text and token usage.
func finalAssistantMessage(outputs []mistral.OutputEntry) (mistral.OutputEntry, bool) {
	for i := len(outputs) - 1; i >= 0; i-- {
		entry := outputs[i]
		if entry.Type == "message.output" && entry.Role == "assistant" {
			return entry, true
		}
	}
	return mistral.OutputEntry{}, false
}

func observe(activity, role string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AgentCalls.WithLabelValues(activity, role, status).Inc()
	metrics.AgentLatency.WithLabelValues(activity, role).Observe(time.Since(started).Seconds())
}

func nonRetryable(errType string, err error) error {
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}

// platformError converts credential rejections into non-retryable failures
// and leaves transient platform errors retryable.
func platformError(err error) error {
	if errors.Is(err, errors.ErrUnauthorized) {
		return nonRetryable(tasks.ErrTypeAuthentication, err)
	}
	return err
}
