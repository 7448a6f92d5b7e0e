// bootstrap.go - Builds the analysis engine from loaded configuration

package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/townsquare/complaint_analyzer/configs"
	"github.com/townsquare/complaint_analyzer/internal/ai"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/engine"
	"github.com/townsquare/complaint_analyzer/internal/processor"
	"github.com/townsquare/complaint_analyzer/internal/ratelimit"
)

// ProviderConfig maps the configs package values onto ai.ProviderConfig.
func ProviderConfig() ai.ProviderConfig {
	return ai.ProviderConfig{
		Provider:        configs.AI_PROVIDER,
		GeminiAPIKey:    configs.GEMINI_API_KEY,
		GeminiModel:     configs.MODEL_NAME,
		AnthropicAPIKey: configs.ANTHROPIC_API_KEY,
		AnthropicModel:  configs.ANTHROPIC_MODEL,
		MistralAPIKey:   configs.MISTRAL_API_KEY,
		MistralModel:    configs.MISTRAL_MODEL_NAME,
	}
}

// EngineConfig returns the orchestrator policy from configs.
func EngineConfig() engine.Config {
	return engine.Config{
		RequireImage:   configs.REQUIRE_IMAGE,
		PrimaryTimeout: configs.PrimaryTimeout(),
	}
}

// NewOrchestrator wires vocabulary, provider, throttling and the state machine.
// A provider without credentials yields a fallback-only orchestrator, not an error.
// It returns the orchestrator and the provider name ("none" in fallback-only mode).
func NewOrchestrator(providerCfg ai.ProviderConfig, cfg engine.Config) (*engine.Orchestrator, string, error) {
	vocab, err := domain.LoadVocabulary(configs.VOCABULARY_PATH)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load vocabulary: %w", err)
	}

	completer, err := ai.CreateCompleter(providerCfg)
	switch {
	case errors.Is(err, ai.ErrProviderNotConfigured):
		log.Printf("⚠️  %v, using keyword classification only", err)
		completer = nil
	case err != nil:
		return nil, "", err
	default:
		limiter := ratelimit.NewLimiter(configs.AI_MAX_CONCURRENT, configs.AI_BURST,
			time.Duration(configs.AI_REFILL_SECONDS)*time.Second)
		completer = ai.Throttle(completer, limiter)
	}

	primary := ai.NewPrimaryAnalyzer(completer, ai.AnalyzerOptions{
		PreprocessImages:  configs.ENABLE_IMAGE_PREPROCESSING,
		MaxImageDimension: configs.MAX_IMAGE_DIMENSION,
	})
	orchestrator := engine.NewOrchestrator(primary, processor.NewRuleBasedClassifier(vocab), cfg)

	log.Printf("✓ Analysis engine ready (provider: %s, require image: %v, timeout: %v)",
		primary.ProviderName(), cfg.RequireImage, cfg.PrimaryTimeout)
	return orchestrator, primary.ProviderName(), nil
}
