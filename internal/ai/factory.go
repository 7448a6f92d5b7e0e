// factory.go - Completion provider factory

package ai

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrProviderNotConfigured means no usable provider was configured;
// the engine then runs fallback-only.
var ErrProviderNotConfigured = errors.New("no AI provider configured")

// CreateCompleter creates a completion provider based on configuration.
// A missing API key or provider "none" returns ErrProviderNotConfigured.
func CreateCompleter(cfg ProviderConfig) (Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrProviderNotConfigured)
		}
		log.Printf("🔵 Creating Gemini provider (model: %s)", cfg.GeminiModel)
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel), nil

	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", ErrProviderNotConfigured)
		}
		log.Printf("🟠 Creating Anthropic provider (model: %s)", cfg.AnthropicModel)
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil

	case "mistral":
		if cfg.MistralAPIKey == "" {
			return nil, fmt.Errorf("%w: MISTRAL_API_KEY is empty", ErrProviderNotConfigured)
		}
		log.Printf("🔷 Creating Mistral provider (model: %s)", cfg.MistralModel)
		return NewMistralProvider(cfg.MistralAPIKey, cfg.MistralModel), nil

	case "", "none":
		return nil, ErrProviderNotConfigured

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: gemini, anthropic, mistral, none)", provider)
	}
}
