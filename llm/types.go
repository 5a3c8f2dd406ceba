package llm

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-initiated tool invocation.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is the fundamental unit of conversation.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolMessage creates a tool result Message.
func ToolMessage(text string) Message {
	return Message{Role: RoleTool, Content: text}
}

// ArgumentSchema is the JSON-Schema-shaped description of a tool's arguments.
// Properties keys are the accepted argument names; a schema with no
// properties accepts anything.
type ArgumentSchema struct {
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
	Defs       any            `json:"$defs,omitempty"`
}

// HasProperty reports whether name is a declared argument.
func (s ArgumentSchema) HasProperty(name string) bool {
	_, ok := s.Properties[name]
	return ok
}

// ToolSpec defines a tool the model may call.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      ArgumentSchema `json:"schema"`
}

// Format constrains the model's output to a JSON object shape.
// A nil *Format means free text.
type Format struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// ObjectFormat builds a Format describing a JSON object with the given
// properties, all of them required.
func ObjectFormat(properties map[string]any) *Format {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	return &Format{Type: "object", Properties: properties, Required: required}
}

// Request is the input to Client.Chat.
type Request struct {
	Model    string     `json:"model"`
	Messages []Message  `json:"messages"`
	Provider string     `json:"provider,omitempty"`
	Tools    []ToolSpec `json:"tools,omitempty"`  // nil disables tool calling
	Format   *Format    `json:"format,omitempty"` // nil means free text
}

// Response is the output of Client.Chat.
type Response struct {
	Model    string  `json:"model"`
	Provider string  `json:"provider"`
	Message  Message `json:"message"`
}

// Text returns the assistant's text content.
func (r *Response) Text() string {
	return r.Message.Content
}

// ToolCalls returns the structured tool calls, if any.
func (r *Response) ToolCalls() []ToolCall {
	return r.Message.ToolCalls
}
