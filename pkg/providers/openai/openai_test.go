package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edallison777/hypermage-vr/pkg/chats/chat"
	"github.com/edallison777/hypermage-vr/pkg/chats/content"
	"github.com/edallison777/hypermage-vr/pkg/chats/message"
	"github.com/edallison777/hypermage-vr/pkg/chats/role"
	"github.com/edallison777/hypermage-vr/pkg/providers/openai"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *openai.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return openai.New(srv.URL, "test-key", "gpt-test")
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3},
	}
}

func TestCompleteSimpleText(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		req := readBody(t, r)
		assert.Equal(t, "gpt-test", req["model"])

		_ = json.NewEncoder(w).Encode(textResponse("The answer is 4."))
	})

	c := chat.New(message.NewText("user", role.User, "What is 2 + 2?"))

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", reply.TextContent())

	total := adapter.UsageTracker().Total()
	assert.Equal(t, 7, total.InputTokens)
	assert.Equal(t, 3, total.OutputTokens)
}

func TestCompleteDeclaresTools(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		tools, ok := req["tools"].([]any)
		require.True(t, ok)
		require.Len(t, tools, 1)

		tool, ok := tools[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "function", tool["type"])

		fn, ok := tool["function"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "invoke_add_numbers", fn["name"])

		_ = json.NewEncoder(w).Encode(textResponse("ok"))
	})

	c := chat.New(message.NewText("user", role.User, "hi"))
	tools := []toolbox.Tool{{
		Name:        "invoke_add_numbers",
		Description: "Add two numbers remotely",
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}}

	_, err := adapter.Complete(context.Background(), c, tools)
	require.NoError(t, err)
}

func TestCompleteParsesToolCalls(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"role":    "assistant",
						"content": nil,
						"tool_calls": []map[string]any{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "calculator",
									"arguments": `{"expression":"2 + 2"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1},
		})
	})

	c := chat.New(message.NewText("user", role.User, "What is 2 + 2?"))

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	calls := reply.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "calculator", calls[0].Name)
}

func TestCompleteSendsToolRoleMessages(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 3)

		last, ok := msgs[2].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tool", last["role"])
		assert.Equal(t, "call_1", last["tool_call_id"])

		_ = json.NewEncoder(w).Encode(textResponse("It is 4."))
	})

	c := chat.New(
		message.NewText("user", role.User, "What is 2 + 2?"),
		message.New("bot", role.Assistant,
			content.ToolCall{ID: "call_1", Name: "calculator", Arguments: `{"expression":"2 + 2"}`},
		),
		message.New("bot", role.Tool,
			content.ToolResult{ToolCallID: "call_1", Content: "The result of 2 + 2 is 4"},
		),
	)

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, "It is 4.", reply.TextContent())
}

func TestCompleteEmptyChoices(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 0},
		})
	})

	c := chat.New(message.NewText("user", role.User, "hi"))

	_, err := adapter.Complete(context.Background(), c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}
