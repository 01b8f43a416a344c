// Package runtime assembles the agent, its tools, and the configured remote
// functions, and exposes the entry handlers the hosting environment invokes:
// a synchronous one returning a single envelope and a streaming one
// returning ordered text chunks.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edallison777/hypermage-vr/pkg/agent"
	"github.com/edallison777/hypermage-vr/pkg/funcs/addfn"
	"github.com/edallison777/hypermage-vr/pkg/modeladapter"
	"github.com/edallison777/hypermage-vr/pkg/modeladapter/usage"
	"github.com/edallison777/hypermage-vr/pkg/providers/anthropic"
	"github.com/edallison777/hypermage-vr/pkg/providers/openai"
	"github.com/edallison777/hypermage-vr/pkg/tools/mcpclient"
	"github.com/edallison777/hypermage-vr/pkg/tools/toolbox"
	"github.com/edallison777/hypermage-vr/pkg/toolset"
)

// Runtime is the composition root. It owns the provider completer, the tool
// set, and the connections to remote function servers. A Runtime is safe for
// concurrent invocations; each invocation runs a fresh agent.
type Runtime struct {
	cfg       Config
	log       *slog.Logger
	completer modeladapter.Completer
	toolboxes []*toolbox.ToolBox
	clients   []*mcpclient.Client
}

// New creates a Runtime from the given configuration. It validates the
// config, builds the provider completer, spawns and connects the configured
// remote function servers, and registers the tool set.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	completer, err := newCompleter(cfg.Provider)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:       cfg,
		log:       log,
		completer: completer,
	}

	local := toolbox.New()
	local.Register(toolset.Calculator())
	r.toolboxes = append(r.toolboxes, local)

	for _, fc := range cfg.Functions {
		if err := r.connectFunction(ctx, fc); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	return r, nil
}

// connectFunction spawns one remote function server, verifies the named
// function is present, and registers its tools. The named add_numbers
// function is wrapped in the formatting invoker; any other tools the server
// exposes are registered as-is.
func (r *Runtime) connectFunction(ctx context.Context, fc FunctionConfig) error {
	client, err := mcpclient.New(ctx, fc.Command, fc.Args...)
	if err != nil {
		return fmt.Errorf("runtime: function %q: %w", fc.Name, err)
	}
	r.clients = append(r.clients, client)

	tools, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("runtime: function %q: list tools: %w", fc.Name, err)
	}

	tb := toolbox.New()
	found := false
	for _, t := range tools {
		if t.Name != fc.Name {
			tb.Register(t)
			continue
		}

		found = true
		if t.Name == addfn.ToolName {
			tb.Register(toolset.RemoteAdd(client, t.Name))
		} else {
			tb.Register(t)
		}
	}

	if !found {
		return fmt.Errorf("runtime: function %q: not exposed by %s", fc.Name, fc.Command)
	}

	r.log.Info("remote function connected", "function", fc.Name, "command", fc.Command, "tools", len(tools))
	r.toolboxes = append(r.toolboxes, tb)

	return nil
}

// newAgent builds a fresh agent for one invocation. onEvent may be nil.
func (r *Runtime) newAgent(onEvent func(agent.Event)) *agent.Agent {
	a := agent.New(
		r.cfg.Agent.Name,
		r.cfg.Agent.Description,
		r.cfg.Agent.Instructions,
		r.completer,
		agent.Options{
			MaxIterations: r.cfg.Agent.MaxIterations,
			Middleware: []agent.Middleware{
				agent.Timeout(time.Duration(r.cfg.Agent.Timeout)),
				agent.Logger(r.log, r.cfg.Agent.Name),
				agent.Recovery(),
			},
			OnEvent: onEvent,
		},
	)
	a.AddToolBoxes(r.toolboxes...)
	a.Init()

	return a
}

// usageReporter is satisfied by provider adapters that accumulate token
// usage across completion calls.
type usageReporter interface {
	UsageTracker() *usage.Tracker
}

// logUsage records the completer's cumulative token usage after a run.
func (r *Runtime) logUsage(ctx context.Context) {
	rep, ok := r.completer.(usageReporter)
	if !ok {
		return
	}

	tracker := rep.UsageTracker()
	total := tracker.Total()
	r.log.InfoContext(ctx, "token usage",
		"agent", r.cfg.Agent.Name,
		"calls", tracker.Count(),
		"input_tokens", total.InputTokens,
		"output_tokens", total.OutputTokens,
	)
}

// Close shuts down remote function clients and releases resources.
func (r *Runtime) Close() error {
	var firstErr error
	for _, c := range r.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newCompleter creates a Completer from a ProviderConfig.
func newCompleter(cfg ProviderConfig) (modeladapter.Completer, error) {
	switch cfg.Kind {
	case "anthropic":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return anthropic.New(baseURL, cfg.APIKey, cfg.Model), nil

	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return openai.New(baseURL, cfg.APIKey, cfg.Model), nil

	default:
		return nil, fmt.Errorf("runtime: unknown provider kind %q", cfg.Kind)
	}
}
