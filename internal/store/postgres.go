package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/metrics"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL DEFAULT '',
	api_key_hash TEXT UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chats (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	messages JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_api_key_hash ON users(api_key_hash);
CREATE INDEX IF NOT EXISTS idx_chats_owner_updated ON chats(user_id, updated_at DESC);
`

// RunMigrations applies the schema to the given database.
func RunMigrations(databaseURL string) error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, pgSchema)
	return err
}

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, name, apiKeyHash string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, api_key_hash)
		VALUES ($1, $2)
		RETURNING id, name, created_at
	`, name, apiKeyHash).Scan(
		&user.ID,
		&user.Name,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByKeyHash retrieves a user by API key hash.
func (s *PostgresStore) GetUserByKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM users WHERE api_key_hash = $1
	`, apiKeyHash).Scan(
		&user.ID,
		&user.Name,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateChat creates a new chat owned by the given user.
func (s *PostgresStore) CreateChat(ctx context.Context, ownerID uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error) {
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.StoreLatency.Observe(time.Since(start).Seconds()) }()

	chat := &models.Chat{}
	var raw []byte
	err = s.pool.QueryRow(ctx, `
		INSERT INTO chats (user_id, title, messages)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, title, messages, created_at, updated_at
	`, ownerID, title, msgJSON).Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&raw,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &chat.Messages); err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChat retrieves a chat by ID. Returns nil when no chat exists.
func (s *PostgresStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat := &models.Chat{}
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats WHERE id = $1
	`, id).Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&raw,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &chat.Messages); err != nil {
		return nil, err
	}
	return chat, nil
}

// UpdateChat replaces the messages and title of a chat and refreshes
// updated_at. Returns nil when no chat exists.
func (s *PostgresStore) UpdateChat(ctx context.Context, id uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error) {
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.StoreLatency.Observe(time.Since(start).Seconds()) }()

	chat := &models.Chat{}
	var raw []byte
	err = s.pool.QueryRow(ctx, `
		UPDATE chats
		SET title = $2, messages = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, title, messages, created_at, updated_at
	`, id, title, msgJSON).Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&raw,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &chat.Messages); err != nil {
		return nil, err
	}
	return chat, nil
}

// ListChatsByOwner retrieves all chats for a user, most recently updated first.
func (s *PostgresStore) ListChatsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var raw []byte
		err := rows.Scan(
			&chat.ID,
			&chat.OwnerID,
			&chat.Title,
			&raw,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &chat.Messages); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// DeleteChat removes a chat. Returns false when no chat existed.
func (s *PostgresStore) DeleteChat(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountChats returns the total number of saved chats.
func (s *PostgresStore) CountChats(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}
