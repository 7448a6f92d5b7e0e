// anthropic.go - Anthropic Messages API completion provider

package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
)

const anthropicMaxTokens = 1024

// AnthropicProvider implements Completer using the Anthropic Messages API
type AnthropicProvider struct {
	client    anthropic.Client
	modelName string
}

// NewAnthropicProvider creates a new Anthropic provider with SDK retries disabled.
// Extra request options (for example option.WithBaseURL) are applied last.
func NewAnthropicProvider(apiKey, modelName string, opts ...option.RequestOption) *AnthropicProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
	}
}

// ProviderName returns "anthropic"
func (p *AnthropicProvider) ProviderName() string {
	return "anthropic"
}

// Complete sends one user message holding the image (when present) followed by the prompt.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	reqCtx := common.FromContext(ctx)

	var blocks []anthropic.ContentBlockParamUnion
	if image != nil && len(image.Data) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(image.ContentType, base64.StdEncoding.EncodeToString(image.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	reqCtx.LogInfo("🟠 Anthropic model: %s | prompt %d chars | %d block(s)", p.modelName, len(prompt), len(blocks))

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelName),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", err
	}

	usage := common.TokenUsage{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		TotalTokens:  int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}
	reqCtx.AddTokens(usage)
	reqCtx.LogInfo("🪙 Tokens: %d in + %d out = %d", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
