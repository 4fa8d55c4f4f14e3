package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/api/middleware"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/metrics"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

// SaveChatRequest is the body for creating or updating a chat.
type SaveChatRequest struct {
	Title    string               `json:"title"`
	Messages []models.ChatMessage `json:"messages"`
}

// ChatListResponse is the chat listing response.
type ChatListResponse struct {
	Chats []models.Chat `json:"chats"`
}

// validateSave checks the shared invariants for create and update.
func (h *Handler) validateSave(w http.ResponseWriter, req *SaveChatRequest) bool {
	// A chat with zero messages is never persisted
	if len(req.Messages) == 0 {
		h.Error(w, http.StatusBadRequest, "messages is required")
		return false
	}
	if strings.TrimSpace(req.Title) == "" {
		h.Error(w, http.StatusBadRequest, "title is required")
		return false
	}
	return true
}

// CreateChat persists a new chat for the authenticated user.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SaveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.validateSave(w, &req) {
		return
	}

	chat, err := h.db.CreateChat(r.Context(), user.ID, req.Title, req.Messages)
	if err != nil {
		h.log.Error().Err(err).Msg("create chat failed")
		h.Error(w, http.StatusInternalServerError, "failed to save chat")
		return
	}

	if h.cache != nil {
		_ = h.cache.InvalidateChatList(r.Context(), user.ID)
	}
	metrics.ChatsSaved.WithLabelValues("create").Inc()

	h.JSON(w, http.StatusCreated, chat)
}

// ListChats returns the authenticated user's chats, most recently updated
// first. Served from the Redis cache when possible.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.cache != nil {
		if chats, ok, err := h.cache.GetChatList(r.Context(), user.ID); err == nil && ok {
			h.JSON(w, http.StatusOK, ChatListResponse{Chats: chats})
			return
		}
	}

	chats, err := h.db.ListChatsByOwner(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("list chats failed")
		h.Error(w, http.StatusInternalServerError, "failed to load chats")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	if h.cache != nil {
		_ = h.cache.CacheChatList(r.Context(), user.ID, chats)
	}

	h.JSON(w, http.StatusOK, ChatListResponse{Chats: chats})
}

// UpdateChat replaces a chat's messages and title.
func (h *Handler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid chat ID format")
		return
	}

	var req SaveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.validateSave(w, &req) {
		return
	}

	existing, err := h.db.GetChat(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get chat failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	// A foreign owner's chat is reported as missing, not forbidden
	if existing == nil || existing.OwnerID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}

	chat, err := h.db.UpdateChat(r.Context(), id, req.Title, req.Messages)
	if err != nil {
		h.log.Error().Err(err).Msg("update chat failed")
		h.Error(w, http.StatusInternalServerError, "failed to save chat")
		return
	}
	if chat == nil {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}

	if h.cache != nil {
		_ = h.cache.InvalidateChatList(r.Context(), user.ID)
	}
	metrics.ChatsSaved.WithLabelValues("update").Inc()

	h.JSON(w, http.StatusOK, chat)
}

// DeleteChat removes a chat owned by the authenticated user.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid chat ID format")
		return
	}

	existing, err := h.db.GetChat(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Msg("get chat failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing == nil || existing.OwnerID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}

	if _, err := h.db.DeleteChat(r.Context(), id); err != nil {
		h.log.Error().Err(err).Msg("delete chat failed")
		h.Error(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	if h.cache != nil {
		_ = h.cache.InvalidateChatList(r.Context(), user.ID)
	}
	metrics.ChatsDeleted.Inc()

	w.WriteHeader(http.StatusNoContent)
}
