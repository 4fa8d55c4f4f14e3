package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

type fakeCompleter struct {
	reply string
	err   error

	calls       int
	lastMessage string
	lastHistory []models.Turn
}

func (f *fakeCompleter) Complete(ctx context.Context, message string, history []models.Turn) (string, error) {
	f.calls++
	f.lastMessage = message
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func doComplete(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, CompletionResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Complete(w, req)

	var resp CompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return w, resp
}

func TestComplete_Success(t *testing.T) {
	f := &fakeCompleter{reply: "Use a RemoteEvent."}
	h := NewHandler(zerolog.Nop(), nil, nil, f)

	body := `{"message":"How do I call the server?","messages":[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello!"}]}`
	w, resp := doComplete(t, h, body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !resp.Success || resp.Response != "Use a RemoteEvent." {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if f.lastMessage != "How do I call the server?" {
		t.Fatalf("message not forwarded: %q", f.lastMessage)
	}
	if len(f.lastHistory) != 2 || f.lastHistory[1].Role != models.RoleAssistant {
		t.Fatalf("history not forwarded in order: %+v", f.lastHistory)
	}
}

func TestComplete_ProviderFailureIsSummarized(t *testing.T) {
	f := &fakeCompleter{err: errors.New("401 invalid_api_key: sk-... is not valid")}
	h := NewHandler(zerolog.Nop(), nil, nil, f)

	w, resp := doComplete(t, h, `{"message":"Hi","messages":[]}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
	// Provider error bodies never reach the caller verbatim
	if strings.Contains(resp.Error, "sk-") || strings.Contains(resp.Error, "invalid_api_key") {
		t.Fatalf("provider detail leaked: %q", resp.Error)
	}
}

func TestComplete_MissingMessageRejected(t *testing.T) {
	f := &fakeCompleter{reply: "nope"}
	h := NewHandler(zerolog.Nop(), nil, nil, f)

	for _, body := range []string{`{"messages":[]}`, `{"message":"   "}`} {
		w, resp := doComplete(t, h, body)
		if w.Code != http.StatusBadRequest || resp.Success {
			t.Fatalf("body %q: expected 400 failure, got %d %+v", body, w.Code, resp)
		}
	}
	if f.calls != 0 {
		t.Fatal("provider must not be called for invalid input")
	}
}

func TestComplete_NoProviderConfigured(t *testing.T) {
	h := NewHandler(zerolog.Nop(), nil, nil, nil)

	w, resp := doComplete(t, h, `{"message":"Hi"}`)
	if w.Code != http.StatusInternalServerError || resp.Success {
		t.Fatalf("expected 500 failure without a provider, got %d %+v", w.Code, resp)
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	h := NewHandler(zerolog.Nop(), nil, nil, &fakeCompleter{})

	w, resp := doComplete(t, h, `{oops`)
	if w.Code != http.StatusBadRequest || resp.Success {
		t.Fatalf("expected 400 failure, got %d %+v", w.Code, resp)
	}
}
