// Package chatc provides a client for the RXX chat service: a typed HTTP
// client for the completion proxy and chat store API, and the Session
// manager that drives a conversation.
package chatc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Turn is a conversation turn at the completion boundary.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message is a chat message. Role is encoded as IsUser on the wire to the
// store; Role() converts for the completion boundary.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// Role returns the completion-boundary role for this message.
func (m Message) Role() string {
	if m.IsUser {
		return "user"
	}
	return "assistant"
}

// Chat is a persisted conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is an RXX chat API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	UserID     string
	APIKey     string
	HTTPClient *http.Client
}

// Config holds saved user credentials.
type Config struct {
	ID     string `json:"id"`
	APIKey string `json:"api_key"`
}

// NewClient creates a new client and loads saved credentials if present.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("RXX_CHAT_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".rxxchat")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}

	_ = c.LoadConfig()
	return c
}

// Authenticated reports whether the client carries saved credentials.
func (c *Client) Authenticated() bool {
	return c.APIKey != ""
}

// LoadConfig loads user credentials from disk.
func (c *Client) LoadConfig() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "config.json"))
	if err != nil {
		return err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return err
	}

	c.UserID = config.ID
	c.APIKey = config.APIKey
	return nil
}

// SaveConfig saves user credentials to disk.
func (c *Client) SaveConfig() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	config := Config{ID: c.UserID, APIKey: c.APIKey}
	data, _ := json.MarshalIndent(config, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "config.json"), data, 0600)
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("rxx chat error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// RegisterResponse is the response from user registration.
type RegisterResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Register creates a new user and saves the issued credentials.
func (c *Client) Register(ctx context.Context, name string) (*RegisterResponse, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	respBody, err := c.doRequest(ctx, "POST", "/register", body, false)
	if err != nil {
		return nil, err
	}

	var resp RegisterResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.UserID = resp.ID
	c.APIKey = resp.APIKey
	if err := c.SaveConfig(); err != nil {
		return nil, err
	}

	return &resp, nil
}

// completionRequest is the completion proxy request body.
type completionRequest struct {
	Message  string `json:"message"`
	Messages []Turn `json:"messages"`
}

// completionResponse is the completion proxy response body.
type completionResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Complete sends a new user message plus prior turns to the completion
// proxy and returns the reply text.
func (c *Client) Complete(ctx context.Context, message string, history []Turn) (string, error) {
	if history == nil {
		history = []Turn{}
	}
	body, _ := json.Marshal(completionRequest{Message: message, Messages: history})

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Failures arrive as {success:false, error} with a non-2xx status;
	// decode the body either way.
	var cr completionResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("completion error %d: malformed response", resp.StatusCode)
	}
	if !cr.Success {
		if cr.Error == "" {
			cr.Error = "failed to get response"
		}
		return "", fmt.Errorf("completion error %d: %s", resp.StatusCode, cr.Error)
	}

	return cr.Response, nil
}

// saveChatRequest is the body for creating or updating a chat.
type saveChatRequest struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// CreateChat persists a new chat and returns it with its assigned ID.
func (c *Client) CreateChat(ctx context.Context, title string, messages []Message) (*Chat, error) {
	body, _ := json.Marshal(saveChatRequest{Title: title, Messages: messages})
	respBody, err := c.doRequest(ctx, "POST", "/chats", body, true)
	if err != nil {
		return nil, err
	}

	var chat Chat
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// UpdateChat replaces a chat's messages and title.
func (c *Client) UpdateChat(ctx context.Context, id, title string, messages []Message) (*Chat, error) {
	body, _ := json.Marshal(saveChatRequest{Title: title, Messages: messages})
	respBody, err := c.doRequest(ctx, "PUT", "/chats/"+id, body, true)
	if err != nil {
		return nil, err
	}

	var chat Chat
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// chatListResponse is the chat listing response.
type chatListResponse struct {
	Chats []Chat `json:"chats"`
}

// ListChats returns the user's chats, most recently updated first.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	respBody, err := c.doRequest(ctx, "GET", "/chats", nil, true)
	if err != nil {
		return nil, err
	}

	var resp chatListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// DeleteChat removes a chat.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, "DELETE", "/chats/"+id, nil, true)
	return err
}

// HealthResponse is the server health response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health checks server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var hr HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, err
	}
	return &hr, nil
}
