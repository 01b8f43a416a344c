package anthropic_test

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
	"github.com/edallison777/hypermage-vr/pkg/providers/anthropic"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *anthropic.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return anthropic.New(srv.URL, "test-key", "claude-test")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func TestCompleteSimpleText(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		req := readBody(t, r)
		assert.Equal(t, "claude-test", req["model"])
		assert.Equal(t, "You are a calculator assistant.", req["system"])

		msgs, ok := req["messages"].([]any)
		assert.True(t, ok)
		assert.Len(t, msgs, 1)

		writeJSON(t, w, map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "The answer is 4."},
			},
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  10,
				"output_tokens": 5,
			},
		})
	})

	c := chat.New(
		message.NewText("system", role.System, "You are a calculator assistant."),
		message.NewText("user", role.User, "What is 2 + 2?"),
	)

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, role.Assistant, reply.Role)
	assert.Equal(t, "The answer is 4.", reply.TextContent())

	total := adapter.UsageTracker().Total()
	assert.Equal(t, 10, total.InputTokens)
	assert.Equal(t, 5, total.OutputTokens)
}

func TestCompleteDeclaresTools(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		tools, ok := req["tools"].([]any)
		require.True(t, ok)
		require.Len(t, tools, 1)

		tool, ok := tools[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "calculator", tool["name"])
		assert.NotNil(t, tool["input_schema"])

		writeJSON(t, w, map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "ok"}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	})

	c := chat.New(message.NewText("user", role.User, "hi"))
	tools := []toolbox.Tool{{
		Name:        "calculator",
		Description: "Evaluate an expression",
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}}

	_, err := adapter.Complete(context.Background(), c, tools)
	require.NoError(t, err)
}

func TestCompleteParsesToolUse(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Let me calculate."},
				{"type": "tool_use", "id": "toolu_1", "name": "calculator", "input": map[string]any{"expression": "2 + 2"}},
			},
			"stop_reason": "tool_use",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	})

	c := chat.New(message.NewText("user", role.User, "What is 2 + 2?"))

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	calls := reply.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.Equal(t, "calculator", calls[0].Name)
	assert.JSONEq(t, `{"expression":"2 + 2"}`, calls[0].Arguments)
}

func TestCompleteSendsToolResultsAsUser(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 3)

		last, ok := msgs[2].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user", last["role"])

		blocks, ok := last["content"].([]any)
		require.True(t, ok)
		block, ok := blocks[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tool_result", block["type"])
		assert.Equal(t, "toolu_1", block["tool_use_id"])

		writeJSON(t, w, map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "It is 4."}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	})

	c := chat.New(
		message.NewText("user", role.User, "What is 2 + 2?"),
		message.New("bot", role.Assistant,
			content.ToolCall{ID: "toolu_1", Name: "calculator", Arguments: `{"expression":"2 + 2"}`},
		),
		message.New("bot", role.Tool,
			content.ToolResult{ToolCallID: "toolu_1", Content: "The result of 2 + 2 is 4"},
		),
	)

	reply, err := adapter.Complete(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, "It is 4.", reply.TextContent())
}

func TestCompleteHTTPError(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	c := chat.New(message.NewText("user", role.User, "hi"))

	_, err := adapter.Complete(context.Background(), c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic:")
	assert.Contains(t, err.Error(), "503")
}
