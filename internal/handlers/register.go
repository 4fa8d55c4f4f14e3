package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/api/middleware"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/metrics"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse is the response from user registration. The API key is
// returned exactly once; only its hash is stored.
type RegisterResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Register creates a new user and issues an API key.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := sanitizeName(req.Name)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}
	apiKey := hex.EncodeToString(keyBytes)

	user, err := h.db.CreateUser(r.Context(), name, middleware.HashAPIKey(apiKey))
	if err != nil {
		h.log.Error().Err(err).Msg("create user failed")
		h.Error(w, http.StatusInternalServerError, "failed to register")
		return
	}

	metrics.UsersRegistered.Inc()

	h.JSON(w, http.StatusCreated, RegisterResponse{
		ID:     user.ID.String(),
		Name:   user.Name,
		APIKey: apiKey,
	})
}
