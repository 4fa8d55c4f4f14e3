package chatc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	authed bool

	reply       string
	completeErr error

	completeCalls int
	lastMessage   string
	lastHistory   []Turn

	createErr    error
	creates      int
	updates      int
	lastTitle    string
	lastSavedID  string
	lastMessages []Message
	nextChatID   string

	// onComplete, when set, runs inside Complete (used to exercise the
	// re-entrancy guard).
	onComplete func()
}

func (f *fakeBackend) Authenticated() bool { return f.authed }

func (f *fakeBackend) Complete(ctx context.Context, message string, history []Turn) (string, error) {
	f.completeCalls++
	f.lastMessage = message
	f.lastHistory = history
	if f.onComplete != nil {
		f.onComplete()
	}
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.reply, nil
}

func (f *fakeBackend) CreateChat(ctx context.Context, title string, messages []Message) (*Chat, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	f.lastTitle = title
	f.lastMessages = messages
	id := f.nextChatID
	if id == "" {
		id = "chat-1"
	}
	return &Chat{ID: id, Title: title, Messages: messages}, nil
}

func (f *fakeBackend) UpdateChat(ctx context.Context, id, title string, messages []Message) (*Chat, error) {
	f.updates++
	f.lastSavedID = id
	f.lastTitle = title
	f.lastMessages = messages
	return &Chat{ID: id, Title: title, Messages: messages}, nil
}

func newTestSession(b *fakeBackend) *Session {
	return NewSession(b, zerolog.Nop())
}

func TestNewSession_StartsWithWelcomeOnly(t *testing.T) {
	s := newTestSession(&fakeBackend{})

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ID != welcomeID || msgs[0].IsUser {
		t.Fatalf("first message must be the assistant welcome: %+v", msgs[0])
	}
	if s.ChatID() != "" {
		t.Fatalf("new session must be unbound, got %q", s.ChatID())
	}
}

func TestSend_SuccessfulExchange(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)

	reply, err := s.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply == nil || reply.Content != "Hello!" || reply.IsUser {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected [welcome, user, assistant], got %d messages", len(msgs))
	}
	if !msgs[1].IsUser || msgs[1].Content != "Hi" {
		t.Fatalf("user message not appended: %+v", msgs[1])
	}
	if msgs[2].IsUser || msgs[2].Content != "Hello!" {
		t.Fatalf("assistant message not appended: %+v", msgs[2])
	}

	// Welcome message is never sent to the proxy
	if len(b.lastHistory) != 0 {
		t.Fatalf("history must exclude the welcome message, got %+v", b.lastHistory)
	}
	if b.lastMessage != "Hi" {
		t.Fatalf("wrong message forwarded: %q", b.lastMessage)
	}

	// Two real messages: the exchange auto-persists and binds the session
	if b.creates != 1 {
		t.Fatalf("expected 1 auto-persist create, got %d", b.creates)
	}
	if b.lastTitle != "Hi" {
		t.Fatalf("title must derive from the first user message, got %q", b.lastTitle)
	}
	if s.ChatID() != "chat-1" {
		t.Fatalf("session must bind to the created chat, got %q", s.ChatID())
	}
	for _, m := range b.lastMessages {
		if m.ID == welcomeID {
			t.Fatal("welcome message must never be persisted")
		}
	}
}

func TestSend_SecondExchangeUpdatesBoundChat(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)

	if _, err := s.Send(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Send(context.Background(), "And again"); err != nil {
		t.Fatal(err)
	}

	if b.creates != 1 || b.updates != 1 {
		t.Fatalf("expected 1 create then 1 update, got %d/%d", b.creates, b.updates)
	}
	if b.lastSavedID != "chat-1" {
		t.Fatalf("update must target the bound chat, got %q", b.lastSavedID)
	}

	// Second request carries the full first exchange as history
	if len(b.lastHistory) != 2 {
		t.Fatalf("expected 2 prior turns, got %d", len(b.lastHistory))
	}
	if b.lastHistory[0].Role != "user" || b.lastHistory[1].Role != "assistant" {
		t.Fatalf("history roles wrong: %+v", b.lastHistory)
	}
}

func TestSend_WhitespaceOnlyIsNoOp(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		reply, err := s.Send(context.Background(), input)
		if err != nil || reply != nil {
			t.Fatalf("whitespace input %q must be a silent no-op, got %v, %v", input, reply, err)
		}
	}

	if b.completeCalls != 0 {
		t.Fatalf("no request may be issued for whitespace input, got %d", b.completeCalls)
	}
	if len(s.Messages()) != 1 {
		t.Fatal("session state must be unchanged")
	}
}

func TestSend_CompletionFailureKeepsUserMessage(t *testing.T) {
	b := &fakeBackend{authed: true, completeErr: errors.New("boom")}
	s := newTestSession(b)

	reply, err := s.Send(context.Background(), "Hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if reply != nil {
		t.Fatalf("no reply on failure, got %+v", reply)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("user message must be retained, got %d messages", len(msgs))
	}
	if !msgs[1].IsUser || msgs[1].Content != "Hi" {
		t.Fatalf("retained message wrong: %+v", msgs[1])
	}

	// No persist is attempted after a failed exchange
	if b.creates != 0 || b.updates != 0 {
		t.Fatal("failed exchange must not persist")
	}
}

func TestSend_RejectsReentrantSend(t *testing.T) {
	b := &fakeBackend{authed: false, reply: "ok"}
	s := newTestSession(b)

	var reentrantErr error
	b.onComplete = func() {
		_, reentrantErr = s.Send(context.Background(), "second")
	}

	if _, err := s.Send(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(reentrantErr, ErrBusy) {
		t.Fatalf("expected ErrBusy for a send while one is outstanding, got %v", reentrantErr)
	}
	if b.completeCalls != 1 {
		t.Fatalf("only one exchange may run, got %d", b.completeCalls)
	}
}

func TestSend_NoAutoSaveWhenUnauthenticated(t *testing.T) {
	b := &fakeBackend{authed: false, reply: "Hello!"}
	s := newTestSession(b)

	if _, err := s.Send(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	if b.creates != 0 || b.updates != 0 {
		t.Fatal("unauthenticated session must not persist")
	}
}

func TestSend_AutoSaveFailureDoesNotFailExchange(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!", createErr: errors.New("db down")}
	s := newTestSession(b)

	reply, err := s.Send(context.Background(), "Hi")
	if err != nil || reply == nil {
		t.Fatalf("exchange must succeed despite save failure: %v", err)
	}
	if len(s.Messages()) != 3 {
		t.Fatal("messages must not be rolled back on save failure")
	}
	if s.ChatID() != "" {
		t.Fatal("session must stay unbound after failed create")
	}
}

func TestSave_NoOpWithoutRealMessages(t *testing.T) {
	b := &fakeBackend{authed: true}
	s := newTestSession(b)

	if err := s.Save(context.Background(), ""); err != nil {
		t.Fatalf("save with only the welcome message must be a no-op: %v", err)
	}
	if b.creates != 0 {
		t.Fatal("nothing may be persisted for an empty conversation")
	}
}

func TestSave_ExplicitTitleOverride(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)

	if _, err := s.Send(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), "My chat"); err != nil {
		t.Fatal(err)
	}
	if b.lastTitle != "My chat" {
		t.Fatalf("explicit title must win, got %q", b.lastTitle)
	}
}

func TestSave_FailureSurfacedGenerically(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "ok"}
	s := newTestSession(b)
	s.messages = append(s.messages, Message{ID: "m1", Content: "hello", IsUser: true, Timestamp: time.Now()})
	b.createErr = errors.New("constraint violation on chats_pkey")

	err := s.Save(context.Background(), "")
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("expected ErrSaveFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "constraint") {
		t.Fatal("store detail must not leak into the user-facing error")
	}
	if len(s.Messages()) != 2 {
		t.Fatal("in-memory state must survive a failed save")
	}
}

func TestLoad_ReplacesConversationAndBinds(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "unsaved reply"}
	s := newTestSession(b)
	if _, err := s.Send(context.Background(), "unsaved work"); err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	chat := Chat{
		ID:    "chat-42",
		Title: "old one",
		Messages: []Message{
			{ID: "a", Content: "How do I use RemoteEvents?", IsUser: true, Timestamp: ts},
			{ID: "b", Content: "Like this...", IsUser: false, Timestamp: ts.Add(time.Second)},
		},
	}
	s.Load(chat)

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected welcome + 2 loaded messages, got %d", len(msgs))
	}
	if msgs[0].ID != welcomeID {
		t.Fatal("loaded conversation must be prefixed with the welcome message")
	}
	if msgs[1].Content != "How do I use RemoteEvents?" || !msgs[1].IsUser {
		t.Fatalf("loaded message content/role lost: %+v", msgs[1])
	}
	if !msgs[2].Timestamp.Equal(ts.Add(time.Second)) {
		t.Fatalf("loaded timestamps must be preserved: %v", msgs[2].Timestamp)
	}
	if s.ChatID() != "chat-42" {
		t.Fatalf("session must bind to the loaded chat, got %q", s.ChatID())
	}
}

func TestReset_DiscardsUnsavedConversation(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)
	if _, err := s.Send(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}

	s.Reset()

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != welcomeID {
		t.Fatalf("reset must leave only the welcome message, got %d", len(msgs))
	}
	if s.ChatID() != "" {
		t.Fatal("reset must unbind the session")
	}
}

func TestChatDeleted_ClearsMatchingBindingOnly(t *testing.T) {
	b := &fakeBackend{authed: true, reply: "Hello!"}
	s := newTestSession(b)
	if _, err := s.Send(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	if s.ChatID() != "chat-1" {
		t.Fatalf("precondition: bound to chat-1, got %q", s.ChatID())
	}

	s.ChatDeleted("some-other-chat")
	if s.ChatID() != "chat-1" {
		t.Fatal("deleting an unrelated chat must not touch the binding")
	}

	s.ChatDeleted("chat-1")
	if s.ChatID() != "" {
		t.Fatal("deleting the bound chat must clear the binding")
	}

	// A later save creates a fresh chat instead of updating the dead one
	b.nextChatID = "chat-2"
	if err := s.Save(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if b.creates != 2 || b.updates != 0 {
		t.Fatalf("save after invalidation must create, got creates=%d updates=%d", b.creates, b.updates)
	}
	if s.ChatID() != "chat-2" {
		t.Fatalf("session must rebind to the new chat, got %q", s.ChatID())
	}
}

func TestDeriveTitle(t *testing.T) {
	exact := strings.Repeat("a", 50)
	if got := deriveTitle(exact); got != exact {
		t.Fatalf("titles at the budget are kept verbatim, got %q", got)
	}

	long := strings.Repeat("b", 51)
	want := strings.Repeat("b", 50) + "..."
	if got := deriveTitle(long); got != want {
		t.Fatalf("long titles truncate to 50 chars + ellipsis, got %q", got)
	}

	// Character budget, not byte budget
	unicode := strings.Repeat("ü", 60)
	if got := deriveTitle(unicode); got != strings.Repeat("ü", 50)+"..." {
		t.Fatalf("truncation must count characters, got %q", got)
	}
}
