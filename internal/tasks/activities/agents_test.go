package activities

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"minerva/internal/adapters/mistral"
	"minerva/internal/agents"
	"minerva/internal/agents/schemas"
	"minerva/internal/tasks"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

type fakePlatform struct {
	createdAgents []mistral.CreateAgentRequest
	updateCalls   []updateCall
	conversation  *mistral.Conversation

	createErr       error
	conversationErr error
}

type updateCall struct {
	agentID  string
	handoffs []string
}

func (f *fakePlatform) CreateAgent(ctx context.Context, req mistral.CreateAgentRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdAgents = append(f.createdAgents, req)
	return "ag_test_001", nil
}

func (f *fakePlatform) UpdateAgent(ctx context.Context, agentID string, handoffs []string) error {
	f.updateCalls = append(f.updateCalls, updateCall{agentID: agentID, handoffs: handoffs})
	return nil
}

func (f *fakePlatform) StartConversation(ctx context.Context, agentID string, inputs string) (*mistral.Conversation, error) {
	if f.conversationErr != nil {
		return nil, f.conversationErr
	}
	return f.conversation, nil
}

type fakePrompts struct {
	prompts map[string]string
	err     error
}

func (f *fakePrompts) ListPrompts(ctx context.Context, serverURL string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.prompts))
	for name := range f.prompts {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakePrompts) GetPrompt(ctx context.Context, serverURL string, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	text, ok := f.prompts[name]
	if !ok {
		return "", errors.Wrapf(errors.ErrPromptNotFound, "prompt %q", name)
	}
	return text, nil
}

func testMounts() map[agents.PromptServer]string {
	return map[agents.PromptServer]string{
		agents.PromptServerFinancials: "http://prompts.test/financials",
		agents.PromptServerPrices:     "http://prompts.test/prices",
	}
}

func newTestActivities(platform *fakePlatform, source *fakePrompts) *Activities {
	return New(Deps{
		Platform: platform,
		Prompts:  source,
		Roles:    agents.DefaultRoleConfigs,
		Mounts:   testMounts(),
		Log:      logger.Get(),
	})
}

func TestCreateAgent_Success(t *testing.T) {
	platform := &fakePlatform{}
	source := &fakePrompts{prompts: map[string]string{
		"planner_prompt": "You plan financial research searches.",
	}}
	a := newTestActivities(platform, source)

	handle, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.RolePlanner})
	require.NoError(t, err)

	assert.Equal(t, "ag_test_001", handle.ID)
	assert.Equal(t, agents.RolePlanner, handle.Role)

	require.Len(t, platform.createdAgents, 1)
	created := platform.createdAgents[0]
	assert.Equal(t, "FinancialPlannerAgent", created.Name)
	assert.Equal(t, "You plan financial research searches.", created.Instructions)
	assert.Equal(t, 0.3, created.Temperature)
	assert.Equal(t, 2048, created.MaxTokens)
	assert.Equal(t, "json_schema", created.ResponseFormat["type"])
}

func TestCreateAgent_EmptyInstructionsIsFatal(t *testing.T) {
	platform := &fakePlatform{}
	source := &fakePrompts{prompts: map[string]string{
		"planner_prompt": "   \n\t ",
	}}
	a := newTestActivities(platform, source)

	_, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.RolePlanner})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeConfiguration, appErr.Type())
	assert.True(t, appErr.NonRetryable(), "empty prompt must not be retried")
	assert.Empty(t, platform.createdAgents, "no agent should be created")
}

func TestCreateAgent_MissingPromptIsFatal(t *testing.T) {
	a := newTestActivities(&fakePlatform{}, &fakePrompts{prompts: map[string]string{}})

	_, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.RoleRisk})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeConfiguration, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestCreateAgent_UnknownRoleIsFatal(t *testing.T) {
	a := newTestActivities(&fakePlatform{}, &fakePrompts{})

	_, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.Role("astrologer")})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeConfiguration, appErr.Type())
}

func TestCreateAgent_TransientPromptErrorIsRetryable(t *testing.T) {
	source := &fakePrompts{err: errors.Wrap(errors.ErrUnavailable, "connection refused")}
	a := newTestActivities(&fakePlatform{}, source)

	_, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.RolePlanner})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	assert.False(t, errors.As(err, &appErr) && appErr.NonRetryable(),
		"transient prompt failures must stay retryable")
}

func TestCreateAgent_UnauthorizedIsFatal(t *testing.T) {
	platform := &fakePlatform{createErr: errors.Wrap(errors.ErrUnauthorized, "bad key")}
	source := &fakePrompts{prompts: map[string]string{"planner_prompt": "plan"}}
	a := newTestActivities(platform, source)

	_, err := a.CreateAgent(context.Background(), CreateAgentInput{Role: agents.RolePlanner})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeAuthentication, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestUpdateAgent_Idempotent(t *testing.T) {
	platform := &fakePlatform{}
	a := newTestActivities(platform, &fakePrompts{})

	input := UpdateAgentInput{AgentID: "ag_writer", Handoffs: []string{"ag_fund", "ag_risk"}}
	require.NoError(t, a.UpdateAgent(context.Background(), input))
	require.NoError(t, a.UpdateAgent(context.Background(), input))

	// Re-applying the same edge set yields the same remote state.
	require.Len(t, platform.updateCalls, 2)
	assert.Equal(t, platform.updateCalls[0], platform.updateCalls[1])
}

func assistantConversation(content string) *mistral.Conversation {
	return &mistral.Conversation{
		ConversationID: "conv_001",
		Outputs: []mistral.OutputEntry{
			{Type: "tool.execution", Role: "assistant", Content: ""},
			{Type: "message.output", Role: "assistant", Content: content, Model: "mistral-medium-2505"},
		},
		Usage: mistral.Usage{PromptTokens: 120, CompletionTokens: 40},
	}
}

func TestRunTurn_ValidatesAndReturnsPayload(t *testing.T) {
	platform := &fakePlatform{conversation: assistantConversation(`{"summary":"margins improving"}`)}
	a := newTestActivities(platform, &fakePrompts{})

	result, err := a.RunTurn(context.Background(), RunTurnInput{
		AgentID: "ag_fund",
		Role:    agents.RoleFundamentals,
		Schema:  schemas.AnalysisSummaryName,
		Input:   "findings...",
	})
	require.NoError(t, err)

	var summary schemas.AnalysisSummary
	require.NoError(t, json.Unmarshal(result.Output, &summary))
	assert.Equal(t, "margins improving", summary.Summary)
	assert.Equal(t, 120, result.InputTokens)
	assert.Equal(t, 40, result.OutputTokens)
	assert.Equal(t, "mistral-medium-2505", result.Model)
}

func TestRunTurn_SchemaMismatchIsFatal(t *testing.T) {
	platform := &fakePlatform{conversation: assistantConversation(`{"wrong_field":"oops"}`)}
	a := newTestActivities(platform, &fakePrompts{})

	_, err := a.RunTurn(context.Background(), RunTurnInput{
		AgentID: "ag_fund",
		Role:    agents.RoleFundamentals,
		Schema:  schemas.AnalysisSummaryName,
		Input:   "findings...",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeSchemaValidation, appErr.Type())
	assert.True(t, appErr.NonRetryable(), "malformed replies must not be retried blindly")
}

func TestRunTurn_NoAssistantMessageIsFatal(t *testing.T) {
	platform := &fakePlatform{conversation: &mistral.Conversation{
		Outputs: []mistral.OutputEntry{
			{Type: "tool.execution", Role: "assistant"},
		},
	}}
	a := newTestActivities(platform, &fakePrompts{})

	_, err := a.RunTurn(context.Background(), RunTurnInput{
		AgentID: "ag_search",
		Role:    agents.RoleSearch,
		Schema:  schemas.AnalysisSummaryName,
		Input:   "query",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, tasks.ErrTypeSchemaValidation, appErr.Type())
}

func TestRunTurn_TransientPlatformErrorIsRetryable(t *testing.T) {
	platform := &fakePlatform{conversationErr: errors.Wrap(errors.ErrUnavailable, "502")}
	a := newTestActivities(platform, &fakePrompts{})

	_, err := a.RunTurn(context.Background(), RunTurnInput{
		AgentID: "ag_search",
		Role:    agents.RoleSearch,
		Schema:  schemas.AnalysisSummaryName,
		Input:   "query",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	assert.False(t, errors.As(err, &appErr) && appErr.NonRetryable())
}

func TestRunTurn_UsesLastAssistantMessage(t *testing.T) {
	platform := &fakePlatform{conversation: &mistral.Conversation{
		Outputs: []mistral.OutputEntry{
			{Type: "message.output", Role: "assistant", Content: `{"summary":"draft"}`},
			{Type: "message.output", Role: "assistant", Content: `{"summary":"final"}`},
		},
	}}
	a := newTestActivities(platform, &fakePrompts{})

	result, err := a.RunTurn(context.Background(), RunTurnInput{
		AgentID: "ag_search",
		Role:    agents.RoleSearch,
		Schema:  schemas.AnalysisSummaryName,
		Input:   "query",
	})
	require.NoError(t, err)

	var summary schemas.AnalysisSummary
	require.NoError(t, json.Unmarshal(result.Output, &summary))
	assert.Equal(t, "final", summary.Summary)
}
