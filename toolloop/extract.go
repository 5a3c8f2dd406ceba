package toolloop

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/todea/meshhub/llm"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?})\\s*```")

// ExtractInlineToolCalls finds tool calls that a model embedded as JSON text
// in its content instead of using the structured tool_calls field. Fenced
// code blocks are tried first (higher confidence); if none yield a call, the
// bare text is scanned for balanced top-level {...} spans. A candidate object
// needs a string "name" (or "function.name"); arguments come from
// "parameters", "arguments", or "function.arguments", defaulting to an empty
// map.
func ExtractInlineToolCalls(content string) []llm.ToolCall {
	var calls []llm.ToolCall

	for _, m := range fencedJSON.FindAllStringSubmatch(content, -1) {
		if call, ok := parseCandidate(m[1]); ok {
			calls = append(calls, call)
		}
	}
	if len(calls) > 0 {
		return calls
	}

	depth, start := 0, -1
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue // stray closer
			}
			depth--
			if depth == 0 && start >= 0 {
				if call, ok := parseCandidate(content[start : i+1]); ok {
					calls = append(calls, call)
				}
				start = -1
			}
		}
	}
	return calls
}

func parseCandidate(text string) (llm.ToolCall, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return llm.ToolCall{}, false
	}

	fn, _ := obj["function"].(map[string]any)

	name, _ := obj["name"].(string)
	if name == "" && fn != nil {
		name, _ = fn["name"].(string)
	}
	if name == "" {
		return llm.ToolCall{}, false
	}

	args, _ := obj["parameters"].(map[string]any)
	if args == nil {
		args, _ = obj["arguments"].(map[string]any)
	}
	if args == nil && fn != nil {
		args, _ = fn["arguments"].(map[string]any)
	}
	if args == nil {
		args = map[string]any{}
	}

	return llm.ToolCall{
		ID:        "call_" + uuid.New().String()[:8],
		Name:      name,
		Arguments: args,
	}, true
}

const extractorInstruction = "You are a JSON extractor. " +
	"Identify which tool should be called and with what arguments. " +
	`Output ONLY a JSON object: {"name": "<tool_name>", "arguments": {<key: value>}}. ` +
	"No prose, no markdown, just the JSON object."

// extractToolCallViaModel is the last-resort extraction: re-ask the model to
// state its tool call intent as JSON. Only used when the content literally
// mentions a known tool name, and constrained to a JSON object output so the
// reply is parseable. One extra model call, no recursion.
func (l *Loop) extractToolCallViaModel(ctx context.Context, content, model string, specs []llm.ToolSpec) (llm.ToolCall, bool) {
	if len(specs) == 0 {
		return llm.ToolCall{}, false
	}
	mentioned := false
	for _, spec := range specs {
		if strings.Contains(content, spec.Name) {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return llm.ToolCall{}, false
	}

	type toolSummary struct {
		Name       string             `json:"name"`
		Parameters llm.ArgumentSchema `json:"parameters"`
	}
	summaries := make([]toolSummary, len(specs))
	for i, spec := range specs {
		summaries[i] = toolSummary{Name: spec.Name, Parameters: spec.Schema}
	}
	specJSON, err := json.Marshal(summaries)
	if err != nil {
		return llm.ToolCall{}, false
	}

	req := llm.Request{
		Model: model,
		Messages: []llm.Message{
			llm.SystemMessage(extractorInstruction),
			llm.UserMessage(fmt.Sprintf(
				"Assistant message:\n%s\n\nAvailable tools (with parameter schemas):\n%s\n\nExtract the tool call:",
				content, specJSON,
			)),
		},
		Format: llm.ObjectFormat(map[string]any{
			"name":      map[string]any{"type": "string"},
			"arguments": map[string]any{"type": "object"},
		}),
	}

	resp, err := l.client.Chat(ctx, req)
	if err != nil {
		l.logger.Warn("model-based tool extraction failed", "error", err)
		return llm.ToolCall{}, false
	}

	var parsed struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		l.logger.Warn("model-based tool extraction returned invalid JSON", "error", err)
		return llm.ToolCall{}, false
	}
	if parsed.Name == "" {
		return llm.ToolCall{}, false
	}
	if parsed.Arguments == nil {
		parsed.Arguments = map[string]any{}
	}

	l.logger.Info("extracted tool call via model", "tool", parsed.Name, "args", parsed.Arguments)
	return llm.ToolCall{
		ID:        "call_" + uuid.New().String()[:8],
		Name:      parsed.Name,
		Arguments: parsed.Arguments,
	}, true
}
