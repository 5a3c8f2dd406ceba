// Package toolloop drives the tool-calling conversation loop against models
// that cannot be trusted to emit structured tool calls. Each iteration offers
// the tool catalog to the model, then recovers tool intent through a series
// of fallbacks: structured tool calls, inline JSON embedded in the text, and
// finally a constrained re-extraction call to the model itself. Recovered
// names are fuzzily resolved against the catalog and arguments are stripped
// down to the tool's schema before execution. Tool failures never abort the
// loop; they are fed back to the model as tool messages. When the iteration
// cap is reached the loop runs one final synthesis pass with tools disabled.
package toolloop
