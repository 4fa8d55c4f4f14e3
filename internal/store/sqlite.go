package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

// sqliteTimeFormat is fixed-width so lexicographic ordering of the TEXT
// column matches chronological ordering (RFC3339Nano trims zeros).
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/rxxchat.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/rxxchat.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT DEFAULT '',
		api_key_hash TEXT UNIQUE NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		messages TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_api_key_hash ON users(api_key_hash);
	CREATE INDEX IF NOT EXISTS idx_chats_owner_updated ON chats(user_id, updated_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// newID generates a time-ordered UUID v7 for rows created client-side.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, apiKeyHash string) (*models.User, error) {
	user := &models.User{
		ID:        uuid.MustParse(newID()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, api_key_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID.String(), name, apiKeyHash, user.CreatedAt.Format(sqliteTimeFormat))
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByKeyHash retrieves a user by API key hash.
func (s *SQLiteStore) GetUserByKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error) {
	user := &models.User{}
	var idStr, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM users WHERE api_key_hash = ?
	`, apiKeyHash).Scan(&idStr, &user.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.ID = uuid.MustParse(idStr)
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CreateChat creates a new chat owned by the given user.
func (s *SQLiteStore) CreateChat(ctx context.Context, ownerID uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error) {
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := newID()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, title, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, ownerID.String(), title, string(msgJSON),
		now.Format(sqliteTimeFormat), now.Format(sqliteTimeFormat))
	if err != nil {
		return nil, err
	}

	return s.GetChat(ctx, uuid.MustParse(id))
}

// GetChat retrieves a chat by ID. Returns nil when no chat exists.
func (s *SQLiteStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat := &models.Chat{}
	var idStr, ownerStr, msgJSON, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats WHERE id = ?
	`, id.String()).Scan(&idStr, &ownerStr, &chat.Title, &msgJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	chat.ID = uuid.MustParse(idStr)
	chat.OwnerID = uuid.MustParse(ownerStr)
	chat.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	chat.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if err := json.Unmarshal([]byte(msgJSON), &chat.Messages); err != nil {
		return nil, err
	}
	return chat, nil
}

// UpdateChat replaces the messages and title of a chat and refreshes
// updated_at. Returns nil when no chat exists.
func (s *SQLiteStore) UpdateChat(ctx context.Context, id uuid.UUID, title string, messages []models.ChatMessage) (*models.Chat, error) {
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE chats SET title = ?, messages = ?, updated_at = ?
		WHERE id = ?
	`, title, string(msgJSON), time.Now().UTC().Format(sqliteTimeFormat), id.String())
	if err != nil {
		return nil, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, nil
	}

	return s.GetChat(ctx, id)
}

// ListChatsByOwner retrieves all chats for a user, most recently updated first.
func (s *SQLiteStore) ListChatsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, ownerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var idStr, ownerStr, msgJSON, createdAt, updatedAt string
		if err := rows.Scan(&idStr, &ownerStr, &chat.Title, &msgJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		chat.ID = uuid.MustParse(idStr)
		chat.OwnerID = uuid.MustParse(ownerStr)
		chat.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		chat.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		if err := json.Unmarshal([]byte(msgJSON), &chat.Messages); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// DeleteChat removes a chat. Returns false when no chat existed.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// CountChats returns the total number of saved chats.
func (s *SQLiteStore) CountChats(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}
