package handlers

import (
	"net/http"
)

// StatsResponse represents aggregate service statistics.
type StatsResponse struct {
	Users int64 `json:"users"`
	Chats int64 `json:"chats"`
}

// Stats handles the public stats endpoint.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.CountUsers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count users failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	chats, err := h.db.CountChats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count chats failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{Users: users, Chats: chats})
}
