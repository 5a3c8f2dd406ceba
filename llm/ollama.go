package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
)

// OllamaAdapter talks to a local or remote Ollama server and implements
// ProviderAdapter. Requests are sent non-streaming; the final message of the
// chat response carries both text content and any structured tool calls.
type OllamaAdapter struct {
	client *api.Client
	host   string
}

// NewOllamaAdapter creates an adapter for the Ollama server at host.
// An empty host defaults to "http://localhost:11434".
func NewOllamaAdapter(host string) (*OllamaAdapter, error) {
	if host == "" {
		host = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(host)
	if err != nil {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("invalid Ollama URL %q", host), Cause: err,
		}}
	}

	return &OllamaAdapter{
		client: api.NewClient(parsedURL, http.DefaultClient),
		host:   host,
	}, nil
}

// Name returns the provider identifier.
func (a *OllamaAdapter) Name() string {
	return "ollama"
}

// Chat sends a blocking chat request and returns the full response.
func (a *OllamaAdapter) Chat(ctx context.Context, req Request) (*Response, error) {
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   func(b bool) *bool { return &b }(false),
	}

	if len(req.Tools) > 0 {
		chatReq.Tools = toOllamaTools(req.Tools)
	}

	if req.Format != nil {
		raw, err := json.Marshal(req.Format)
		if err != nil {
			return nil, &ClientError{Message: "invalid output format", Cause: err}
		}
		chatReq.Format = raw
	}

	var last api.ChatResponse
	respFunc := func(resp api.ChatResponse) error {
		last = resp
		return nil
	}

	if err := a.client.Chat(ctx, chatReq, respFunc); err != nil {
		return nil, a.translateError(err)
	}

	return &Response{
		Model:    last.Model,
		Provider: a.Name(),
		Message:  fromOllamaMessage(last.Message),
	}, nil
}

// ListModels returns the names of the models installed on the server.
func (a *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	resp, err := a.client.List(ctx)
	if err != nil {
		return nil, a.translateError(err)
	}
	names := make([]string, len(resp.Models))
	for i, m := range resp.Models {
		names[i] = m.Name
	}
	return names, nil
}

// translateError converts an Ollama client error into the unified hierarchy.
func (a *OllamaAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AbortError{ClientError: ClientError{Message: "ollama request cancelled", Cause: err}}
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return ErrorFromStatusCode(statusErr.StatusCode, msg, a.Name())
	}
	// Connection refused, DNS failure, etc.
	return &NetworkError{ClientError: ClientError{Message: "ollama unreachable", Cause: err}}
}

func toOllamaMessages(messages []Message) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msg := api.Message{Role: string(m.Role), Content: m.Content}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      tc.Name,
					Arguments: api.ToolCallFunctionArguments(tc.Arguments),
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromOllamaMessage(m api.Message) Message {
	msg := Message{Role: Role(m.Role), Content: m.Content}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        "call_" + uuid.New().String()[:8],
			Name:      tc.Function.Name,
			Arguments: map[string]any(tc.Function.Arguments),
		})
	}
	return msg
}

func toOllamaTools(specs []ToolSpec) []api.Tool {
	tools := make([]api.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  toOllamaParameters(spec.Schema),
			},
		})
	}
	return tools
}

func toOllamaParameters(schema ArgumentSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Properties: make(map[string]api.ToolProperty),
	}
	if params.Type == "" {
		params.Type = "object"
	}
	if schema.Defs != nil {
		params.Defs = schema.Defs
	}
	for name, value := range schema.Properties {
		params.Properties[name] = toOllamaProperty(value)
	}
	return params
}

func toOllamaProperty(value any) api.ToolProperty {
	prop := api.ToolProperty{}

	propMap, ok := value.(map[string]any)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil {
			return prop
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return prop
		}
		propMap = m
	}

	// type can be a string or a list of strings
	if typeVal, ok := propMap["type"]; ok {
		switch t := typeVal.(type) {
		case string:
			prop.Type = api.PropertyType{t}
		case []string:
			prop.Type = api.PropertyType(t)
		case []any:
			types := make([]string, 0, len(t))
			for _, v := range t {
				if s, ok := v.(string); ok {
					types = append(types, s)
				}
			}
			prop.Type = api.PropertyType(types)
		}
	}

	if desc, ok := propMap["description"].(string); ok {
		prop.Description = desc
	}

	if enumVal, ok := propMap["enum"].([]any); ok {
		prop.Enum = enumVal
	}

	if items, ok := propMap["items"]; ok {
		prop.Items = items
	}

	if anyOf, ok := propMap["anyOf"].([]any); ok {
		props := make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			props = append(props, toOllamaProperty(item))
		}
		prop.AnyOf = props
	}

	return prop
}
