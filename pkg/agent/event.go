package agent

import "time"

// EventKind identifies the type of agent event.
type EventKind string

const (
	EventData          EventKind = "data"
	EventToolCallStart EventKind = "tool_call_start"
	EventToolCallEnd   EventKind = "tool_call_end"
)

// Event is an immutable notification of agent activity. Events carrying
// assistant text have Kind EventData and a string Data payload; tool call
// events carry a ToolCallInfo payload.
type Event struct {
	Kind      EventKind
	Agent     string
	Timestamp time.Time
	Data      any
}

// ToolCallInfo describes a tool invocation for tool call events.
type ToolCallInfo struct {
	ID      string
	Name    string
	IsError bool
}

// emit delivers an event to the configured observer, if any.
func (a *Agent) emit(kind EventKind, data any) {
	if a.options.OnEvent == nil {
		return
	}

	a.options.OnEvent(Event{
		Kind:      kind,
		Agent:     a.name,
		Timestamp: time.Now(),
		Data:      data,
	})
}
