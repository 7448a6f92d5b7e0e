// interface.go - Completion capability interface for supporting multiple AI providers

package ai

import (
	"context"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

// Completer is the multimodal completion capability the engine depends on:
// given a prompt and an optional image, return the model's raw text.
// Implementations must honour ctx cancellation and must not retry.
type Completer interface {
	Complete(ctx context.Context, prompt string, image *domain.Image) (string, error)

	// ProviderName returns the name of the provider (e.g., "gemini", "anthropic")
	ProviderName() string
}

// ProviderConfig contains configuration for completion providers
type ProviderConfig struct {
	// Provider name: "gemini", "anthropic", "mistral" or "none"
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	AnthropicAPIKey string
	AnthropicModel  string

	MistralAPIKey string
	MistralModel  string
}
