// Package toolset provides the tools exposed to the calculator agent: a
// local arithmetic calculator and an invoker for the remote addition
// function. Tool failures are returned to the model as descriptive strings
// rather than errors, so the agent can report them in its reply.
package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/edallison777/hypermage-vr/pkg/mathexpr"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
)

type calculatorInput struct {
	Expression string `json:"expression" jsonschema:"description=An arithmetic expression to evaluate (e.g. \"2 + 2\" or \"10 * 5\")"`
}

// Calculator returns a tool that evaluates arithmetic expressions with the
// restricted mathexpr grammar (numbers, + - * /, parentheses).
func Calculator() toolbox.Tool {
	return toolbox.Tool{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression and return the result.",
		InputSchema: toolbox.SchemaFor(&calculatorInput{}),
		Handler:     calculate,
	}
}

func calculate(_ context.Context, input json.RawMessage) (string, error) {
	var in calculatorInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Sprintf("Error evaluating expression: %v", err), nil
	}

	result, err := mathexpr.Eval(in.Expression)
	if err != nil {
		return fmt.Sprintf("Error evaluating expression: %v", err), nil
	}

	return fmt.Sprintf("The result of %s is %s", in.Expression, formatNumber(result)), nil
}

// formatNumber renders a float without a trailing ".0" for integral values.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
