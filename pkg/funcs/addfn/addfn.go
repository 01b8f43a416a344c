// Package addfn implements the remote addition function: a stateless
// request/response unit that adds two numbers and echoes its inputs. It is
// deployed standalone by cmd/addfn and invoked by the agent's
// invoke_add_numbers tool.
package addfn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
)

// ToolName is the name under which the function is exposed to callers.
const ToolName = "add_numbers"

// Event is the function's request payload. Both fields are optional and
// default to 0 when absent. Non-numeric JSON values are rejected at decode
// time rather than coerced.
type Event struct {
	A *float64 `json:"a,omitempty" jsonschema:"description=First number to add"`
	B *float64 `json:"b,omitempty" jsonschema:"description=Second number to add"`
}

// Inputs echoes the resolved operands back to the caller.
type Inputs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Response is the function's structured result.
type Response struct {
	StatusCode int     `json:"statusCode"`
	Result     float64 `json:"result"`
	Operation  string  `json:"operation"`
	Inputs     Inputs  `json:"inputs"`
}

// Handle adds the event's operands. Absent operands are treated as 0.
func Handle(e Event) Response {
	var a, b float64
	if e.A != nil {
		a = *e.A
	}
	if e.B != nil {
		b = *e.B
	}

	return Response{
		StatusCode: http.StatusOK,
		Result:     a + b,
		Operation:  "addition",
		Inputs:     Inputs{A: a, B: b},
	}
}

// Tool wraps Handle as a toolbox tool so the function can be served over a
// request/response transport. The handler returns the Response as JSON;
// malformed or non-numeric input is a handler error.
func Tool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ToolName,
		Description: "Add two numbers and return the sum with the inputs echoed back.",
		InputSchema: toolbox.SchemaFor(&Event{}),
		Handler:     handle,
	}
}

func handle(_ context.Context, input json.RawMessage) (string, error) {
	var e Event
	if len(input) > 0 {
		if err := json.Unmarshal(input, &e); err != nil {
			return "", fmt.Errorf("addfn: decode event: %w", err)
		}
	}

	out, err := json.Marshal(Handle(e))
	if err != nil {
		return "", fmt.Errorf("addfn: encode response: %w", err)
	}

	return string(out), nil
}
