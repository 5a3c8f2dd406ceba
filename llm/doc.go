// Package llm provides a provider-agnostic chat client. Provider backends
// (Ollama, gollm-wrapped cloud providers) implement ProviderAdapter and are
// registered on a Client, which routes requests by provider identifier and
// applies middleware. Messages, tool specifications, and tool calls use a
// normalized representation; each adapter translates to and from its wire
// format at the boundary.
package llm
