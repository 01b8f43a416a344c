package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/edallison777/hypermage-vr/pkg/chats/chat"
	"github.com/edallison777/hypermage-vr/pkg/chats/content"
	"github.com/edallison777/hypermage-vr/pkg/chats/message"
	"github.com/edallison777/hypermage-vr/pkg/chats/role"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

// sequenceCompleter returns a sequence of preconfigured replies.
type sequenceCompleter struct {
	replies []message.Message
	index   int
}

func (p *sequenceCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	if p.index >= len(p.replies) {
		return message.Message{}, errors.New("no more replies")
	}
	reply := p.replies[p.index]
	p.index++
	return reply, nil
}

// errorCompleter always returns an error.
type errorCompleter struct {
	err error
}

func (p *errorCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	return message.Message{}, p.err
}

func newEchoToolBox() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(toolbox.Tool{
		Name:        "echo",
		Description: "Echoes input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	})
	return tb
}

// --- constructor tests ---

func TestNew(t *testing.T) {
	c := &sequenceCompleter{}
	a := New("bot", "A test agent", "Do stuff", c, Options{MaxIterations: 5})

	assert.Equal(t, "bot", a.Name())
	assert.NotNil(t, a.Chat())
	assert.Equal(t, 0, a.Chat().Len())
}

func TestInitBuildsSystemPrompt(t *testing.T) {
	a := New("bot", "A calculator assistant.", "Use the tools.", &sequenceCompleter{}, Options{})
	a.Init()

	prompt := a.Chat().SystemPrompt()
	assert.Contains(t, prompt, "You are bot.")
	assert.Contains(t, prompt, "A calculator assistant.")
	assert.Contains(t, prompt, "Use the tools.")
}

// --- loop tests ---

func TestRunNoToolCalls(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.NewText("", role.Assistant, "Done."),
		},
	}
	a := New("bot", "", "", p, Options{})

	result, err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Done.", result.TextContent())
	assert.Equal(t, "bot", result.Sender)
}

func TestRunSingleIteration(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New("", role.Assistant,
				content.Text{Text: "Calling tool."},
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{"msg":"hi"}`},
			),
			message.NewText("", role.Assistant, "Got the result."),
		},
	}
	a := New("bot", "", "", p, Options{})
	a.AddToolBoxes(newEchoToolBox())

	result, err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Got the result.", result.TextContent())
	assert.Equal(t, 2, p.index)
}

func TestRunAppendsToolResult(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New("", role.Assistant,
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{"msg":"hi"}`},
			),
			message.NewText("", role.Assistant, "Done."),
		},
	}
	a := New("bot", "", "", p, Options{})
	a.AddToolBoxes(newEchoToolBox())

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	// system + assistant(tool call) + tool result + final assistant
	require.Equal(t, 4, a.Chat().Len())

	var results []content.ToolResult
	for _, m := range a.Chat().Messages() {
		for _, part := range m.Parts {
			if tr, ok := part.(content.ToolResult); ok {
				results = append(results, tr)
			}
		}
	}
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.False(t, results[0].IsError)
}

func TestRunToolNotFound(t *testing.T) {
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New("", role.Assistant,
				content.ToolCall{ID: "c1", Name: "missing", Arguments: `{}`},
			),
			message.NewText("", role.Assistant, "Could not use the tool."),
		},
	}
	a := New("bot", "", "", p, Options{})

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Could not use the tool.", result.TextContent())

	last, ok := a.Chat().Last()
	require.True(t, ok)
	assert.Equal(t, role.Assistant, last.Role)
}

func TestRunMaxIterations(t *testing.T) {
	toolCall := message.New("", role.Assistant,
		content.ToolCall{ID: "c", Name: "echo", Arguments: `{}`},
	)
	p := &sequenceCompleter{
		replies: []message.Message{toolCall, toolCall, toolCall},
	}
	a := New("bot", "", "", p, Options{MaxIterations: 2})
	a.AddToolBoxes(newEchoToolBox())

	_, err := a.Run(context.Background())
	assert.ErrorIs(t, err, ErrMaxIterations)
}

func TestRunCompleterError(t *testing.T) {
	p := &errorCompleter{err: errors.New("api unavailable")}
	a := New("bot", "", "", p, Options{})

	_, err := a.Run(context.Background())
	assert.EqualError(t, err, "api unavailable")
}

// --- event tests ---

func TestRunEmitsDataEvents(t *testing.T) {
	var events []Event
	p := &sequenceCompleter{
		replies: []message.Message{
			message.New("", role.Assistant,
				content.Text{Text: "Hello"},
				content.ToolCall{ID: "c1", Name: "echo", Arguments: `{}`},
			),
			message.NewText("", role.Assistant, " world"),
		},
	}
	a := New("bot", "", "", p, Options{
		OnEvent: func(e Event) { events = append(events, e) },
	})
	a.AddToolBoxes(newEchoToolBox())

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	var texts []string
	for _, e := range events {
		if s, ok := e.Data.(string); ok && e.Kind == EventData {
			texts = append(texts, s)
		}
	}
	assert.Equal(t, []string{"Hello", " world"}, texts)

	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []EventKind{EventData, EventToolCallStart, EventToolCallEnd, EventData}, kinds)
}

func TestRunEmitsToolErrorFlag(t *testing.T) {
	var ends []ToolCallInfo
	tb := toolbox.New()
	tb.Register(toolbox.Tool{
		Name: "fail",
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	})

	p := &sequenceCompleter{
		replies: []message.Message{
			message.New("", role.Assistant,
				content.ToolCall{ID: "c1", Name: "fail", Arguments: `{}`},
			),
			message.NewText("", role.Assistant, "done"),
		},
	}
	a := New("bot", "", "", p, Options{
		OnEvent: func(e Event) {
			if e.Kind == EventToolCallEnd {
				ends = append(ends, e.Data.(ToolCallInfo))
			}
		},
	})
	a.AddToolBoxes(tb)

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ends, 1)
	assert.True(t, ends[0].IsError)
}
