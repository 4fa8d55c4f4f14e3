package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/metrics"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

// CompletionRequest is the completion proxy request body.
type CompletionRequest struct {
	Message  string        `json:"message"`
	Messages []models.Turn `json:"messages"`
}

// CompletionResponse is the completion proxy response body.
type CompletionResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Complete forwards a user message plus prior turns to the model provider.
// Provider errors are logged in full but never returned to the caller
// beyond a summarized string.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.JSON(w, http.StatusBadRequest, CompletionResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		h.JSON(w, http.StatusBadRequest, CompletionResponse{Success: false, Error: "message is required"})
		return
	}

	h.log.Info().
		Int("previous_messages", len(req.Messages)).
		Msg("completion request received")

	if h.completer == nil {
		h.log.Error().Msg("completion requested but no provider API key is configured")
		metrics.CompletionsTotal.WithLabelValues("error").Inc()
		h.JSON(w, http.StatusInternalServerError, CompletionResponse{Success: false, Error: "completion service not configured"})
		return
	}

	reply, err := h.completer.Complete(r.Context(), message, req.Messages)
	if err != nil {
		h.log.Error().Err(err).Msg("provider request failed")
		metrics.CompletionsTotal.WithLabelValues("error").Inc()
		h.JSON(w, http.StatusInternalServerError, CompletionResponse{Success: false, Error: "failed to get response"})
		return
	}

	metrics.CompletionsTotal.WithLabelValues("ok").Inc()
	h.JSON(w, http.StatusOK, CompletionResponse{Success: true, Response: reply})
}
