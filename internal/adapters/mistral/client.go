package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"minerva/pkg/errors"
)

// Client is the narrow agent-platform contract the orchestrator consumes.
// Any remote client satisfying it is interchangeable, which lets tests swap
// in a fake.
type Client interface {
	// CreateAgent registers a new agent instance and returns its ID.
	CreateAgent(ctx context.Context, req CreateAgentRequest) (string, error)

	// UpdateAgent sets the hand-off edges on an existing agent. Re-applying
	// the same edge set is a no-op.
	UpdateAgent(ctx context.Context, agentID string, handoffs []string) error

	// StartConversation runs one conversation turn and returns the output
	// entries plus token usage.
	StartConversation(ctx context.Context, agentID string, inputs string) (*Conversation, error)
}

// CreateAgentRequest carries the platform settings for a new agent.
type CreateAgentRequest struct {
	Model          string
	Name           string
	Description    string
	Instructions   string
	Temperature    float64
	MaxTokens      int
	Tools          []ToolSpec
	ResponseFormat map[string]interface{}
}

// ToolSpec is a platform tool grant, e.g. {"type": "web_search"}.
type ToolSpec struct {
	Type string `json:"type"`
}

// OutputEntry is one entry of a conversation response.
type OutputEntry struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Usage reports token consumption for a conversation turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Conversation is the result of one conversation turn.
type Conversation struct {
	ConversationID string        `json:"conversation_id"`
	Outputs        []OutputEntry `json:"outputs"`
	Usage          Usage         `json:"usage"`
}

// HTTPClient talks to the Mistral agents API over plain HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a platform client against baseURL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createAgentBody struct {
	Model          string          `json:"model"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Instructions   string          `json:"instructions"`
	CompletionArgs *completionArgs `json:"completion_args,omitempty"`
	Tools          []ToolSpec      `json:"tools,omitempty"`
}

type completionArgs struct {
	Temperature    float64                `json:"temperature"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type agentResponse struct {
	ID string `json:"id"`
}

// CreateAgent implements Client.
func (c *HTTPClient) CreateAgent(ctx context.Context, req CreateAgentRequest) (string, error) {
	body := createAgentBody{
		Model:        req.Model,
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		CompletionArgs: &completionArgs{
			Temperature:    req.Temperature,
			MaxTokens:      req.MaxTokens,
			ResponseFormat: req.ResponseFormat,
		},
		Tools: req.Tools,
	}

	var resp agentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/agents", body, &resp); err != nil {
		return "", errors.Wrapf(err, "create agent %q", req.Name)
	}
	if resp.ID == "" {
		return "", errors.Wrap(errors.ErrExternal, "platform returned agent without id")
	}
	return resp.ID, nil
}

type updateAgentBody struct {
	Handoffs []string `json:"handoffs"`
}

// UpdateAgent implements Client.
func (c *HTTPClient) UpdateAgent(ctx context.Context, agentID string, handoffs []string) error {
	path := fmt.Sprintf("/v1/agents/%s", agentID)
	if err := c.do(ctx, http.MethodPatch, path, updateAgentBody{Handoffs: handoffs}, nil); err != nil {
		return errors.Wrapf(err, "update agent %s", agentID)
	}
	return nil
}

type startConversationBody struct {
	AgentID string `json:"agent_id"`
	Inputs  string `json:"inputs"`
}

// StartConversation implements Client.
func (c *HTTPClient) StartConversation(ctx context.Context, agentID string, inputs string) (*Conversation, error) {
	var resp Conversation
	body := startConversationBody{AgentID: agentID, Inputs: inputs}
	if err := c.do(ctx, http.MethodPost, "/v1/conversations", body, &resp); err != nil {
		return nil, errors.Wrapf(err, "start conversation with agent %s", agentID)
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(errors.ErrUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp.StatusCode, raw)
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(raw, respBody); err != nil {
		return errors.Wrap(err, "unmarshal response")
	}
	return nil
}

// apiError maps platform status codes onto the domain error taxonomy so the
// retry policy can distinguish transient failures from fatal ones.
func (c *HTTPClient) apiError(status int, raw []byte) error {
	message := string(raw)
	var envelope struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			message = envelope.Message
		} else if envelope.Detail != "" {
			message = envelope.Detail
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Wrapf(errors.ErrUnauthorized, "platform rejected credential (%d): %s", status, message)
	case status == http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimitExceeded, "platform rate limit (%d): %s", status, message)
	case status >= 500:
		return errors.Wrapf(errors.ErrUnavailable, "platform error (%d): %s", status, message)
	default:
		return errors.Wrapf(errors.ErrExternal, "platform error (%d): %s", status, message)
	}
}
