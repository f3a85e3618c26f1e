package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"minerva/pkg/errors"
)

// Source is the prompt lookup contract. A prompt server exposes named
// instruction prompts per mount URL; an absent name is a hard error.
type Source interface {
	// ListPrompts returns the prompt names the server exposes.
	ListPrompts(ctx context.Context, serverURL string) ([]string, error)

	// GetPrompt fetches the text of a named prompt.
	GetPrompt(ctx context.Context, serverURL string, name string) (string, error)
}

// HTTPSource looks up prompts over JSON-RPC 2.0, the protocol the prompt
// servers speak.
type HTTPSource struct {
	client    *http.Client
	requestID atomic.Int64
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates a prompt source with the given request timeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{client: &http.Client{Timeout: timeout}}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type promptDescriptor struct {
	Name string `json:"name"`
}

type listPromptsResult struct {
	Prompts []promptDescriptor `json:"prompts"`
}

type getPromptParams struct {
	Name string `json:"name"`
}

type getPromptResult struct {
	Messages []promptMessage `json:"messages"`
}

type promptMessage struct {
	Role    string        `json:"role"`
	Content promptContent `json:"content"`
}

type promptContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ListPrompts implements Source.
func (s *HTTPSource) ListPrompts(ctx context.Context, serverURL string) ([]string, error) {
	var result listPromptsResult
	if err := s.call(ctx, serverURL, "prompts/list", nil, &result); err != nil {
		return nil, errors.Wrap(err, "list prompts")
	}

	names := make([]string, 0, len(result.Prompts))
	for _, p := range result.Prompts {
		names = append(names, p.Name)
	}
	return names, nil
}

// GetPrompt implements Source. It verifies the prompt is listed before
// fetching, so a missing name fails with a clear error instead of a server
// specific one.
func (s *HTTPSource) GetPrompt(ctx context.Context, serverURL string, name string) (string, error) {
	available, err := s.ListPrompts(ctx, serverURL)
	if err != nil {
		return "", err
	}

	found := false
	for _, candidate := range available {
		if candidate == name {
			found = true
			break
		}
	}
	if !found {
		return "", errors.Wrapf(errors.ErrPromptNotFound, "prompt %q on %s", name, serverURL)
	}

	var result getPromptResult
	if err := s.call(ctx, serverURL, "prompts/get", getPromptParams{Name: name}, &result); err != nil {
		return "", errors.Wrapf(err, "get prompt %q", name)
	}
	if len(result.Messages) == 0 {
		return "", errors.Wrapf(errors.ErrExternal, "prompt %q has no messages", name)
	}
	return result.Messages[0].Content.Text, nil
}

func (s *HTTPSource) call(ctx context.Context, serverURL, method string, params, result interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      s.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(err, "marshal rpc request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(errors.ErrUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read rpc response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrUnavailable, "prompt server error (%d): %s", resp.StatusCode, string(raw))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return errors.Wrap(err, "unmarshal rpc response")
	}
	if rpcResp.Error != nil {
		return errors.Wrapf(errors.ErrExternal, "rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return errors.Wrap(err, "unmarshal rpc result")
	}
	return nil
}
