package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/todea/meshhub/llm"
	"github.com/todea/meshhub/toolloop"
)

// ChatRequest is the body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// ChatResponse is the body of POST /chat.
type ChatResponse struct {
	Content   string `json:"content"`
	Provider  string `json:"provider"`
	SessionID string `json:"session_id"`
}

// chatStatusError pairs an HTTP status with a detail message so validation
// helpers can short-circuit handlers.
type chatStatusError struct {
	status int
	detail string
}

func (e *chatStatusError) Error() string { return e.detail }

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "A message is required.")
		return
	}

	ctx := r.Context()

	model, err := s.resolveModel(ctx, req.Model)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}

	sessionID := sessionOrDefault(req.SessionID)
	if _, err := s.conversations.Ensure(ctx, sessionID, model, ""); err != nil {
		s.logger.Warn("conversation ensure failed", "session", sessionID, "error", err)
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}

	unlock := s.locks.lock(sessionID)
	history, err := s.historyForSession(ctx, sessionID)
	if err != nil {
		unlock()
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}

	content, err := s.loop.Run(ctx, history, message, model)
	unlock()
	if err != nil {
		s.writeLoopError(w, err)
		return
	}

	s.persistTurn(ctx, sessionID, message, content)

	writeJSON(w, http.StatusOK, ChatResponse{
		Content:   content,
		Provider:  ProviderID,
		SessionID: sessionID,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "A message is required.")
		return
	}

	ctx := r.Context()

	model, err := s.resolveModel(ctx, req.Model)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}

	sessionID := sessionOrDefault(req.SessionID)
	if _, err := s.conversations.Ensure(ctx, sessionID, model, ""); err != nil {
		s.logger.Warn("conversation ensure failed", "session", sessionID, "error", err)
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported.")
		return
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	history, err := s.historyForSession(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var final string
	for event := range s.loop.Stream(ctx, history, message, model) {
		if event.Kind == toolloop.EventDone {
			final = event.Content
		}
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// Persist even a partial turn; the user message went out regardless.
	s.persistTurn(context.WithoutCancel(ctx), sessionID, message, final)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.models.Names(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Ollama list failed: %v", err))
		return
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "No models installed on the Ollama host. Use 'ollama pull <model>'.")
		return
	}
	def := s.defaultModel
	if !contains(names, def) {
		def = names[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": names, "default": def})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.models.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Cannot reach Ollama: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveModel validates the requested model against the installed list,
// falling back to the configured default when the request names a model that
// is not installed.
func (s *Server) resolveModel(ctx context.Context, requested string) (string, error) {
	names, err := s.models.Names(ctx)
	if err != nil {
		return "", &chatStatusError{status: http.StatusBadGateway, detail: fmt.Sprintf("Ollama list failed: %v", err)}
	}

	model := strings.TrimSpace(requested)
	if model == "" {
		model = s.defaultModel
	}
	if len(names) > 0 && !contains(names, model) {
		s.logger.Warn("requested model not available; falling back", "requested", model, "fallback", s.defaultModel)
		model = s.defaultModel
	}
	if len(names) > 0 && !contains(names, model) {
		return "", &chatStatusError{
			status: http.StatusBadRequest,
			detail: fmt.Sprintf("Default model '%s' not available. Available: %v", model, names),
		}
	}
	return model, nil
}

func (s *Server) historyForSession(ctx context.Context, sessionID string) ([]llm.Message, error) {
	stored, err := s.conversations.Messages(ctx, sessionID)
	if err != nil {
		s.logger.Warn("loading history failed", "session", sessionID, "error", err)
		return nil, err
	}
	history := make([]llm.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return history, nil
}

func (s *Server) persistTurn(ctx context.Context, sessionID, userMessage, assistantMessage string) {
	if err := s.conversations.AppendMessage(ctx, sessionID, "user", userMessage); err != nil {
		s.logger.Warn("failed to save user message", "session", sessionID, "error", err)
		return
	}
	if err := s.conversations.AppendMessage(ctx, sessionID, "assistant", assistantMessage); err != nil {
		s.logger.Warn("failed to save assistant message", "session", sessionID, "error", err)
	}
}

func (s *Server) writeStatusError(w http.ResponseWriter, err error) {
	var se *chatStatusError
	if errors.As(err, &se) {
		writeError(w, se.status, se.detail)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeLoopError(w http.ResponseWriter, err error) {
	var invalid *toolloop.InvalidInputError
	var empty *toolloop.EmptyOutputError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Message)
	case errors.As(err, &empty):
		writeError(w, http.StatusInternalServerError, "The Ollama model did not return any text.")
	case llm.IsUnreachable(err):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Ollama chat failed: %v", err))
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func sessionOrDefault(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "default-" + ProviderID
	}
	return id
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
