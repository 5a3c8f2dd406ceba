package toolloop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/todea/meshhub/llm"
)

// Sentinel strings fed back to the model. Clients of downstream transcripts
// depend on these exact values.
const (
	iterationLimitMessage = "Tool iteration limit reached."
	fallbackSummary       = "Agent completed tool execution but produced no summary."
)

// DefaultMaxIterations bounds tool-execution rounds per turn.
const DefaultMaxIterations = 10

// Config tunes a Loop.
type Config struct {
	// MaxIterations is the number of tool-execution rounds allowed per turn.
	// The model is consulted at most MaxIterations+1 times with tools
	// offered, plus one final synthesis call. Zero means DefaultMaxIterations.
	MaxIterations int

	// Instruction is the base system prompt. The exact tool names are
	// appended to it so the model does not hallucinate them.
	Instruction string

	// Retry applies to every model call.
	Retry llm.RetryPolicy

	Logger *slog.Logger
}

// Loop resolves and repairs tool calls for a single conversation turn.
// A Loop is stateless across turns and safe for concurrent use; callers that
// need per-conversation ordering serialize turns themselves.
type Loop struct {
	client   ChatClient
	catalog  Catalog
	executor Executor
	config   Config
	logger   *slog.Logger
}

// New creates a Loop. catalog and executor may not be nil.
func New(client ChatClient, catalog Catalog, executor Executor, config Config) *Loop {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	if config.Retry.MaxRetries == 0 && config.Retry.BaseDelay == 0 {
		config.Retry = llm.DefaultRetryPolicy()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		client:   client,
		catalog:  catalog,
		executor: executor,
		config:   config,
		logger:   logger,
	}
}

// Run executes one conversation turn and returns the final answer text.
// history carries the prior conversation (no system message); userMessage is
// the new user input.
func (l *Loop) Run(ctx context.Context, history []llm.Message, userMessage, model string) (string, error) {
	return l.run(ctx, history, userMessage, model, nil)
}

// Stream executes one conversation turn, emitting progress events on the
// returned channel. The channel is closed when the turn finishes; the last
// event is either done or error. Cancelling ctx stops further tool
// executions.
func (l *Loop) Stream(ctx context.Context, history []llm.Message, userMessage, model string) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		emit := func(ev Event) bool {
			// Prefer delivery while the buffer has room so a cancelled
			// context cannot race an otherwise successful send.
			select {
			case ch <- ev:
				return true
			default:
			}
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		answer, err := l.run(ctx, history, userMessage, model, emit)
		if err != nil {
			emit(Event{Kind: EventError, Content: err.Error()})
			return
		}
		emit(Event{Kind: EventDone, Content: answer})
	}()
	return ch
}

// run is the single state machine behind Run and Stream. emit is nil for the
// blocking path; when non-nil it reports progress and returns false once the
// consumer is gone.
func (l *Loop) run(ctx context.Context, history []llm.Message, userMessage, model string, emit func(Event) bool) (string, error) {
	trimmed := strings.TrimSpace(userMessage)
	if trimmed == "" {
		return "", &InvalidInputError{Message: "a message is required"}
	}

	specs, err := l.catalog.Tools(ctx)
	if err != nil {
		l.logger.Warn("tool catalog unavailable; tool calling disabled", "error", err)
		specs = nil
	}

	system := l.config.Instruction
	if len(specs) > 0 {
		names := make([]string, len(specs))
		for i, spec := range specs {
			names[i] = spec.Name
		}
		// Exact tool names in the system message keep the model from
		// hallucinating them.
		system += "\n\nAvailable tools (use EXACT names): " + strings.Join(names, ", ")
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(system))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(trimmed))

	maxIterations := l.config.MaxIterations

	for iteration := 0; iteration <= maxIterations; iteration++ {
		resp, err := l.chat(ctx, llm.Request{Model: model, Messages: messages, Tools: specs})
		if err != nil {
			return "", err
		}

		assistant := resp.Message
		messages = append(messages, assistant)
		content := assistant.Content
		calls := assistant.ToolCalls

		if content != "" && emit != nil {
			if !emit(Event{Kind: EventThinking, Content: content}) {
				return "", ctx.Err()
			}
		}

		if len(calls) == 0 && iteration < maxIterations {
			// Fallback 1: the model embedded the call as inline JSON text.
			if inline := ExtractInlineToolCalls(content); len(inline) > 0 {
				l.logger.Info("found inline tool calls in content", "count", len(inline))
				calls = inline
				messages[len(messages)-1] = llm.Message{Role: llm.RoleAssistant, ToolCalls: inline}
			}

			// Fallback 2: the model mentioned a tool but formatted the call
			// wrong (e.g. as a shell command). Re-ask with constrained JSON.
			if len(calls) == 0 {
				if extracted, ok := l.extractToolCallViaModel(ctx, content, model, specs); ok {
					if spec, ok := l.resolve(extracted.Name, specs); ok {
						extracted.Name = spec.Name
						calls = []llm.ToolCall{extracted}
						messages[len(messages)-1] = llm.Message{Role: llm.RoleAssistant, ToolCalls: calls}
					}
				}
			}
		}

		if len(calls) == 0 {
			if content == "" {
				return "", &EmptyOutputError{Message: "the model did not return any text"}
			}
			return content, nil
		}

		if iteration == maxIterations {
			l.logger.Warn("tool iteration limit reached", "limit", maxIterations)
			messages = append(messages, llm.ToolMessage(iterationLimitMessage))
			break
		}

		for _, call := range calls {
			if call.Name == "" {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			spec, ok := l.resolve(call.Name, specs)
			if !ok {
				messages = append(messages, llm.ToolMessage(fmt.Sprintf("Unknown tool: '%s'", call.Name)))
				continue
			}

			args := SanitizeArguments(spec, call.Arguments)
			if len(args) != len(call.Arguments) {
				l.logger.Info("stripped invalid args", "tool", spec.Name, "kept", len(args), "given", len(call.Arguments))
			}

			if emit != nil && !emit(Event{Kind: EventToolCall, Name: spec.Name, Args: args}) {
				return "", ctx.Err()
			}

			l.logger.Info("calling tool", "tool", spec.Name, "args", args)
			result, err := l.executor.Call(ctx, spec.Name, args)
			if err != nil {
				result = fmt.Sprintf("Tool '%s' error: %v", spec.Name, err)
				l.logger.Warn("tool execution failed", "tool", spec.Name, "error", err)
			}

			if emit != nil && !emit(Event{Kind: EventToolResult, Name: spec.Name, Content: result}) {
				return "", ctx.Err()
			}
			messages = append(messages, llm.ToolMessage(result))
		}
	}

	// Synthesis pass after hitting the iteration cap, tools disabled.
	resp, err := l.chat(ctx, llm.Request{Model: model, Messages: messages})
	if err != nil {
		return "", err
	}
	if resp.Text() == "" {
		return fallbackSummary, nil
	}
	return resp.Text(), nil
}

func (l *Loop) chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return llm.Retry(ctx, l.config.Retry, func(ctx context.Context) (*llm.Response, error) {
		return l.client.Chat(ctx, req)
	})
}

func (l *Loop) resolve(name string, specs []llm.ToolSpec) (llm.ToolSpec, bool) {
	spec, ok := Resolve(name, specs)
	if !ok {
		l.logger.Warn("cannot resolve tool name", "requested", name)
		return llm.ToolSpec{}, false
	}
	if spec.Name != name {
		l.logger.Info("resolved tool name", "requested", name, "resolved", spec.Name)
	}
	return spec, true
}
