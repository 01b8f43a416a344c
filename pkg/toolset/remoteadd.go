package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edallison777/hypermage-vr/pkg/funcs/addfn"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
)

// Caller performs a synchronous request/response call to a named remote
// function. *mcpclient.Client satisfies this interface.
type Caller interface {
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error)
}

type remoteAddInput struct {
	A float64 `json:"a" jsonschema:"description=First number to add"`
	B float64 `json:"b" jsonschema:"description=Second number to add"`
}

// RemoteAdd returns a tool that adds two numbers by invoking the named
// remote function through the given caller. Transport and decode failures
// are folded into the result string, never returned as errors.
func RemoteAdd(caller Caller, function string) toolbox.Tool {
	return toolbox.Tool{
		Name:        "invoke_add_numbers",
		Description: fmt.Sprintf("Add two numbers by invoking the remote %s function.", function),
		InputSchema: toolbox.SchemaFor(&remoteAddInput{}),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return invokeRemoteAdd(ctx, caller, function, input)
		},
	}
}

func invokeRemoteAdd(ctx context.Context, caller Caller, function string, input json.RawMessage) (string, error) {
	var in remoteAddInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Sprintf("Error invoking remote function: %v", err), nil
	}

	payload, err := json.Marshal(addfn.Event{A: &in.A, B: &in.B})
	if err != nil {
		return fmt.Sprintf("Error invoking remote function: %v", err), nil
	}

	raw, err := caller.CallTool(ctx, function, payload)
	if err != nil {
		return fmt.Sprintf("Error invoking remote function: %v", err), nil
	}

	var resp addfn.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return fmt.Sprintf("Error invoking remote function: %v", err), nil
	}

	return fmt.Sprintf("Remote function %s returned %s", function, formatNumber(resp.Result)), nil
}
