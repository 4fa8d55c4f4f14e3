package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles used at the completion boundary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation turn as sent to the completion provider.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is the persisted message shape. Role is encoded as the
// isUser boolean here; RoleFor/IsUserRole are the only conversion points
// between this encoding and the role strings used at the completion
// boundary.
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn converts a persisted message into a completion turn.
func (m ChatMessage) Turn() Turn {
	return Turn{Role: RoleFor(m.IsUser), Content: m.Content}
}

// RoleFor maps the persisted isUser flag to a completion role string.
func RoleFor(isUser bool) string {
	if isUser {
		return RoleUser
	}
	return RoleAssistant
}

// IsUserRole maps a completion role string back to the persisted flag.
func IsUserRole(role string) bool {
	return role == RoleUser
}

// Chat represents a persisted conversation owned by a user.
type Chat struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   uuid.UUID     `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// User represents a registered chat user.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
