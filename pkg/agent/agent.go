// Package agent provides a tool-calling agent loop: the model reasons over
// the conversation, requests tool invocations, and the loop feeds results
// back until the model produces a final text answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edallison777/hypermage-vr/pkg/chats/chat"
	"github.com/edallison777/hypermage-vr/pkg/chats/content"
	"github.com/edallison777/hypermage-vr/pkg/chats/message"
	"github.com/edallison777/hypermage-vr/pkg/chats/role"
	"github.com/edallison777/hypermage-vr/pkg/modeladapter"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
)

// ErrMaxIterations is returned when the loop exceeds MaxIterations without
// the model producing a final answer.
var ErrMaxIterations = errors.New("agent: max iterations reached")

// Options configures an Agent.
type Options struct {
	MaxIterations int          // Loop limit (0 = unlimited).
	Middleware    []Middleware // Applied around Run().
	OnEvent       func(Event)  // Optional observer for loop activity.
}

// Agent runs the tool-calling loop against a completer with a set of
// toolboxes. Each Agent owns its chat; construct a fresh Agent per
// invocation to keep requests isolated.
type Agent struct {
	name         string
	description  string
	instructions string
	completer    modeladapter.Completer
	chat         *chat.Chat
	toolboxes    []*toolbox.ToolBox
	options      Options
}

// New creates an Agent with the given configuration.
func New(name, description, instructions string, completer modeladapter.Completer, opts Options) *Agent {
	return &Agent{
		name:         name,
		description:  description,
		instructions: instructions,
		completer:    completer,
		chat:         chat.New(),
		options:      opts,
	}
}

// Init builds the system prompt and appends it to the chat. Call this after
// AddToolBoxes so later additions don't race the prompt.
func (a *Agent) Init() {
	if a.chat.SystemPrompt() == "" {
		a.chat.Append(message.NewText(a.name, role.System, a.buildSystemPrompt()))
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Chat returns the agent's chat.
func (a *Agent) Chat() *chat.Chat { return a.chat }

// AddToolBoxes adds toolboxes to the agent.
func (a *Agent) AddToolBoxes(tbs ...*toolbox.ToolBox) {
	a.toolboxes = append(a.toolboxes, tbs...)
}

// Run executes the agent's loop with middleware applied.
func (a *Agent) Run(ctx context.Context) (message.Message, error) {
	var runner Runner = RunnerFunc(a.run)

	// Apply middleware in reverse order so the first middleware is outermost.
	for i := len(a.options.Middleware) - 1; i >= 0; i-- {
		runner = a.options.Middleware[i](runner)
	}

	return runner.Run(ctx)
}

// run is the internal loop.
func (a *Agent) run(ctx context.Context) (message.Message, error) {
	// Ensure system prompt exists (fallback for direct usage without Init).
	a.Init()

	// Collect tool declarations from all toolboxes for the completer.
	var tools []toolbox.Tool
	for _, tb := range a.toolboxes {
		tools = append(tools, tb.Tools()...)
	}

	for i := 0; a.options.MaxIterations == 0 || i < a.options.MaxIterations; i++ {
		reply, err := a.completer.Complete(ctx, a.chat, tools)
		if err != nil {
			return message.Message{}, err
		}

		reply.Sender = a.name
		a.chat.Append(reply)

		if text := reply.TextContent(); text != "" {
			a.emit(EventData, text)
		}

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			return reply, nil
		}

		for _, tc := range calls {
			a.emit(EventToolCallStart, ToolCallInfo{ID: tc.ID, Name: tc.Name})

			result := a.callTool(ctx, tc)

			a.emit(EventToolCallEnd, ToolCallInfo{ID: tc.ID, Name: tc.Name, IsError: result.IsError})
			a.chat.Append(message.New(a.name, role.Tool, result))
		}
	}

	return message.Message{}, ErrMaxIterations
}

// buildSystemPrompt constructs the system prompt from identity and
// instructions.
func (a *Agent) buildSystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.", a.name)
	if a.description != "" {
		fmt.Fprintf(&b, " %s", a.description)
	}
	b.WriteString("\n")

	if a.instructions != "" {
		b.WriteString("\n## Instructions\n\n")
		b.WriteString(a.instructions)
		b.WriteString("\n")
	}

	return b.String()
}

// callTool searches all toolboxes for the named tool and executes it.
func (a *Agent) callTool(ctx context.Context, tc content.ToolCall) content.ToolResult {
	for _, tb := range a.toolboxes {
		if _, ok := tb.Get(tc.Name); ok {
			return tb.Call(ctx, tc)
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Content:    fmt.Sprintf("tool not found: %s", tc.Name),
		IsError:    true,
	}
}
