// Package providers contains concrete LLM completion adapters.
//
// It is organized into sub-packages:
//   - [github.com/edallison777/hypermage-vr/pkg/providers/anthropic] — Anthropic Messages API adapter (the default; the agent runs Claude)
//   - [github.com/edallison777/hypermage-vr/pkg/providers/openai] — OpenAI Chat Completions API adapter
//
// This package contains no provider-specific code — concrete adapters live in
// separate packages that embed modeladapter.ModelAdapter.
package providers
