package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/metrics"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/persona"
)

const (
	defaultModel = "gpt-4o-mini"

	// Bounded output and fixed sampling temperature for every request.
	maxOutputTokens     = 1000
	samplingTemperature = 0.7
)

// OpenAI implements Completer against the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a completion client with the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
}

// Complete sends the persona prompt, the prior turns and the new user
// message to the provider and returns the generated reply.
func (p *OpenAI) Complete(ctx context.Context, message string, history []models.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(persona.SystemPrompt))
	for _, t := range history {
		if models.IsUserRole(t.Role) {
			msgs = append(msgs, openai.UserMessage(t.Content))
		} else {
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    msgs,
		MaxTokens:   openai.Int(maxOutputTokens),
		Temperature: openai.Float(samplingTemperature),
	})
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
