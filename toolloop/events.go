package toolloop

// EventKind identifies the kind of loop progress event.
type EventKind string

const (
	EventThinking   EventKind = "thinking"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventDone       EventKind = "done"
	EventError      EventKind = "error"
)

// Event is emitted by Stream as the loop progresses. The JSON shape is what
// goes over the wire to SSE consumers:
//
//	{"type": "thinking",    "content": "<model text>"}
//	{"type": "tool_call",   "name": "<tool>", "args": {}}
//	{"type": "tool_result", "name": "<tool>", "content": "<output>"}
//	{"type": "done",        "content": "<final answer>"}
//	{"type": "error",       "content": "<message>"}
type Event struct {
	Kind    EventKind      `json:"type"`
	Name    string         `json:"name,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Content string         `json:"content,omitempty"`
}
