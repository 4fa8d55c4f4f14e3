// Package llm mediates completion requests to the external model provider.
package llm

import (
	"context"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

// Completer produces an assistant reply for a new user message given the
// prior conversation turns. History is passed in original order; the new
// message is not part of it.
type Completer interface {
	Complete(ctx context.Context, message string, history []models.Turn) (string, error)
}
