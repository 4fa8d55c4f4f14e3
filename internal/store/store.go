package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

// ChatStore defines the interface for persistent storage of users and chats.
// Both PostgresStore and SQLiteStore implement this interface.
type ChatStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, name, apiKeyHash string) (*models.User, error)
	GetUserByKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Chat operations
	CreateChat(ctx context.Context, ownerID uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error)
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	UpdateChat(ctx context.Context, id uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error)
	ListChatsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Chat, error)
	DeleteChat(ctx context.Context, id uuid.UUID) (bool, error)
	CountChats(ctx context.Context) (int64, error)
}
