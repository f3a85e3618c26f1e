package prompts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/pkg/errors"
)

// promptServer fakes a JSON-RPC prompt mount serving a fixed prompt set.
func promptServer(t *testing.T, prompts map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string `json:"jsonrpc"`
			ID      int64  `json:"id"`
			Method  string `json:"method"`
			Params  struct {
				Name string `json:"name"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "prompts/list":
			descriptors := make([]map[string]string, 0, len(prompts))
			for name := range prompts {
				descriptors = append(descriptors, map[string]string{"name": name})
			}
			writeRPCResult(w, map[string]interface{}{"prompts": descriptors})
		case "prompts/get":
			text, ok := prompts[req.Params.Name]
			if !ok {
				_, _ = w.Write([]byte(`{"error": {"code": -32602, "message": "unknown prompt"}}`))
				return
			}
			writeRPCResult(w, map[string]interface{}{
				"messages": []map[string]interface{}{
					{"role": "user", "content": map[string]string{"type": "text", "text": text}},
				},
			})
		default:
			_, _ = w.Write([]byte(`{"error": {"code": -32601, "message": "method not found"}}`))
		}
	}))
}

func writeRPCResult(w http.ResponseWriter, result interface{}) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": json.RawMessage(raw)})
}

func TestListPrompts(t *testing.T) {
	server := promptServer(t, map[string]string{
		"planner_prompt": "Plan searches.",
		"search_prompt":  "Search the web.",
	})
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	names, err := source.ListPrompts(context.Background(), server.URL)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"planner_prompt", "search_prompt"}, names)
}

func TestGetPrompt(t *testing.T) {
	server := promptServer(t, map[string]string{
		"planner_prompt": "You plan financial research searches.",
	})
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	text, err := source.GetPrompt(context.Background(), server.URL, "planner_prompt")
	require.NoError(t, err)
	assert.Equal(t, "You plan financial research searches.", text)
}

func TestGetPrompt_NotListed(t *testing.T) {
	server := promptServer(t, map[string]string{
		"planner_prompt": "Plan searches.",
	})
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	_, err := source.GetPrompt(context.Background(), server.URL, "missing_prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPromptNotFound))
}

func TestGetPrompt_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": -32603, "message": "internal error"}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	_, err := source.GetPrompt(context.Background(), server.URL, "planner_prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExternal))
}

func TestGetPrompt_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	source := NewHTTPSource(time.Second)
	_, err := source.GetPrompt(context.Background(), server.URL, "planner_prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestGetPrompt_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewHTTPSource(5 * time.Second)
	_, err := source.ListPrompts(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}
