package chatc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/persona"
)

// welcomeID is the reserved identifier of the synthetic welcome message.
// The welcome message is shown at session start but never sent to the
// completion proxy and never persisted.
const welcomeID = "welcome"

// titleLimit is the character budget for a derived chat title.
const titleLimit = 50

// autoSaveThreshold is the non-welcome message count at which a session
// persists itself after a successful exchange.
const autoSaveThreshold = 2

var (
	// ErrBusy is returned by Send while another exchange is outstanding.
	// The loading flag is authoritative here; callers do not need to
	// serialize input themselves.
	ErrBusy = errors.New("a message exchange is already in progress")

	// ErrSendFailed is the generic user-facing send failure. Detail goes
	// to the session log only.
	ErrSendFailed = errors.New("failed to send message")

	// ErrSaveFailed is the generic user-facing save failure.
	ErrSaveFailed = errors.New("failed to save chat")
)

// Backend is what a session needs from the service: completions and chat
// persistence. *Client implements it.
type Backend interface {
	Authenticated() bool
	Complete(ctx context.Context, message string, history []Turn) (string, error)
	CreateChat(ctx context.Context, title string, messages []Message) (*Chat, error)
	UpdateChat(ctx context.Context, id, title string, messages []Message) (*Chat, error)
}

// Session holds the ordered message list for one active conversation and
// drives the exchange and persistence cycle. A session is owned by a
// single goroutine; all mutations happen sequentially.
type Session struct {
	backend Backend
	log     zerolog.Logger

	messages []Message
	chatID   string // empty while the conversation is unsaved
	loading  bool
	saving   bool
}

// NewSession creates a session seeded with the welcome message.
func NewSession(backend Backend, logger zerolog.Logger) *Session {
	return &Session{
		backend:  backend,
		log:      logger,
		messages: []Message{welcomeMessage()},
	}
}

func welcomeMessage() Message {
	return Message{
		ID:        welcomeID,
		Content:   persona.Welcome,
		IsUser:    false,
		Timestamp: time.Now().UTC(),
	}
}

func newMessageID() string {
	return ulid.Make().String()
}

// Messages returns a copy of the active message list, welcome included.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ChatID returns the bound chat ID, or "" for an unsaved conversation.
func (s *Session) ChatID() string { return s.chatID }

// Loading reports whether an exchange is outstanding.
func (s *Session) Loading() bool { return s.loading }

// Saving reports whether a persist is in flight.
func (s *Session) Saving() bool { return s.saving }

// Send appends the user's message, requests a completion and appends the
// reply. Whitespace-only input is a silent no-op. On completion failure
// the user's message stays in the list and ErrSendFailed is returned.
// After a successful exchange the session auto-persists once it holds at
// least two non-welcome messages; an auto-persist failure is logged but
// does not fail the exchange.
func (s *Session) Send(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if s.loading {
		return nil, ErrBusy
	}

	s.loading = true
	defer func() { s.loading = false }()

	// History is the prior turns only; the proxy appends the new message
	// itself as the final turn.
	history := s.history()

	s.messages = append(s.messages, Message{
		ID:        newMessageID(),
		Content:   text,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	})

	reply, err := s.backend.Complete(ctx, text, history)
	if err != nil {
		s.log.Warn().Err(err).Msg("completion request failed")
		return nil, ErrSendFailed
	}

	msg := Message{
		ID:        newMessageID(),
		Content:   reply,
		IsUser:    false,
		Timestamp: time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)

	if len(s.realMessages()) >= autoSaveThreshold {
		if err := s.save(ctx, ""); err != nil {
			s.log.Warn().Err(err).Msg("auto-save failed")
		}
	}

	return &msg, nil
}

// Save persists the conversation, deriving a title from the first real
// message unless one is given. It is a no-op without credentials or
// without any non-welcome messages. In-memory state is untouched on
// failure; the user may retry.
func (s *Session) Save(ctx context.Context, title string) error {
	if err := s.save(ctx, title); err != nil {
		s.log.Warn().Err(err).Msg("failed to save chat")
		return ErrSaveFailed
	}
	return nil
}

func (s *Session) save(ctx context.Context, title string) error {
	real := s.realMessages()
	if !s.backend.Authenticated() || len(real) == 0 {
		return nil
	}

	s.saving = true
	defer func() { s.saving = false }()

	if title == "" {
		title = deriveTitle(real[0].Content)
	}

	if s.chatID != "" {
		_, err := s.backend.UpdateChat(ctx, s.chatID, title, real)
		return err
	}

	chat, err := s.backend.CreateChat(ctx, title, real)
	if err != nil {
		return err
	}
	s.chatID = chat.ID
	return nil
}

// Load replaces the active conversation with a persisted chat and binds
// the session to it. Any unsaved in-progress messages are discarded.
func (s *Session) Load(chat Chat) {
	msgs := make([]Message, 0, len(chat.Messages)+1)
	msgs = append(msgs, welcomeMessage())
	msgs = append(msgs, chat.Messages...)

	s.messages = msgs
	s.chatID = chat.ID
}

// Reset starts a new conversation, discarding any unsaved messages and
// unbinding the session.
func (s *Session) Reset() {
	s.messages = []Message{welcomeMessage()}
	s.chatID = ""
}

// ChatDeleted tells the session that a chat was deleted elsewhere. A
// binding to the deleted chat is cleared so a later save creates a fresh
// record instead of writing to a nonexistent one.
func (s *Session) ChatDeleted(id string) {
	if s.chatID == id {
		s.chatID = ""
	}
}

// history maps the non-welcome messages to completion turns in order.
func (s *Session) history() []Turn {
	turns := make([]Turn, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID == welcomeID {
			continue
		}
		turns = append(turns, Turn{Role: m.Role(), Content: m.Content})
	}
	return turns
}

// realMessages returns the messages excluding the welcome message.
func (s *Session) realMessages() []Message {
	real := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID == welcomeID {
			continue
		}
		real = append(real, m)
	}
	return real
}

// deriveTitle builds a chat title from the first message, truncated to
// the title budget with an ellipsis marker.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return content
}
