package runtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/edallison777/hypermage-vr/pkg/agent"
	"github.com/edallison777/hypermage-vr/pkg/chats/message"
	"github.com/edallison777/hypermage-vr/pkg/chats/role"
)

// Payload is the invocation payload delivered by the hosting environment.
type Payload struct {
	Prompt string `json:"prompt"`
}

// Result is the non-streaming invocation envelope. Exactly one of the
// success or error shapes is populated.
type Result struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Usage    string `json:"usage,omitempty"`
	Status   string `json:"status,omitempty"`
}

const (
	// StatusSuccess and StatusError are the envelope status values.
	StatusSuccess = "success"
	StatusError   = "error"

	errNoPrompt = "No prompt provided"
	usageHint   = `Send a JSON payload with a "prompt" field`
)

// Invoke runs one synchronous agent invocation. A missing or empty prompt
// returns an error envelope without touching the agent; any failure during
// the run is caught and returned as an error envelope, never propagated.
func (r *Runtime) Invoke(ctx context.Context, p Payload) Result {
	if strings.TrimSpace(p.Prompt) == "" {
		return Result{Error: errNoPrompt, Usage: usageHint}
	}

	a := r.newAgent(nil)
	a.Chat().Append(message.NewText("user", role.User, p.Prompt))

	reply, err := a.Run(ctx)
	r.logUsage(ctx)
	if err != nil {
		return Result{Error: err.Error(), Status: StatusError}
	}

	return Result{Response: reply.TextContent(), Status: StatusSuccess}
}

// InvokeStream runs one streaming agent invocation. It returns an ordered
// channel of text chunks that is closed when the run completes. A missing
// prompt yields a single JSON-encoded error chunk. Any failure during the
// run yields one JSON-encoded error chunk after which no further chunks
// follow. Sends suspend until the consumer is ready; cancelling ctx
// abandons the stream.
func (r *Runtime) InvokeStream(ctx context.Context, p Payload) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if strings.TrimSpace(p.Prompt) == "" {
			send(ctx, out, errorChunk(errNoPrompt))
			return
		}

		a := r.newAgent(func(e agent.Event) {
			if e.Kind != agent.EventData {
				return
			}
			if s, ok := e.Data.(string); ok {
				send(ctx, out, s)
			}
		})
		a.Chat().Append(message.NewText("user", role.User, p.Prompt))

		_, err := a.Run(ctx)
		r.logUsage(ctx)
		if err != nil {
			send(ctx, out, errorChunk("Agent error: "+err.Error()))
		}
	}()

	return out
}

// send delivers a chunk, blocking until the consumer reads it or ctx is
// cancelled.
func send(ctx context.Context, out chan<- string, chunk string) {
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}

// errorChunk serializes an error message as the stream's error object.
func errorChunk(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
