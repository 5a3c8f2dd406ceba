package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/todea/meshhub/convhub"
)

// ConversationCreateRequest is the body of POST /conversations.
type ConversationCreateRequest struct {
	Title string `json:"title,omitempty"`
	Model string `json:"model,omitempty"`
}

// ConversationUpdateRequest is the body of PATCH /conversations/{id}.
type ConversationUpdateRequest struct {
	Title string `json:"title"`
}

func conversationNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Conversation '%s' not found.", id))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	resp, err := s.conversations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}
	if resp.Conversations == nil {
		resp.Conversations = []convhub.Summary{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	names, err := s.models.Names(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Ollama list failed: %v", err))
		return
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.defaultModel
	}
	if len(names) > 0 && !contains(names, model) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown model '%s'. Available: %v", model, names))
		return
	}

	conv, err := s.conversations.Create(r.Context(), req.Title, model)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv, err := s.conversations.Get(r.Context(), id)
	if errors.Is(err, convhub.ErrNotFound) {
		conversationNotFound(w, id)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ConversationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "A title is required.")
		return
	}

	conv, err := s.conversations.Rename(r.Context(), id, req.Title)
	if errors.Is(err, convhub.ErrNotFound) {
		conversationNotFound(w, id)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.conversations.Delete(r.Context(), id)
	if errors.Is(err, convhub.ErrNotFound) {
		conversationNotFound(w, id)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Conversation hub unreachable.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
