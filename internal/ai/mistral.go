// mistral.go - Mistral chat completions provider

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
)

const mistralChatURL = "https://api.mistral.ai/v1/chat/completions"

// MistralProvider implements Completer for Mistral AI vision models
type MistralProvider struct {
	apiKey    string
	modelName string
	endpoint  string
	client    *http.Client
}

// NewMistralProvider creates a new Mistral AI provider.
// The per-request deadline comes from ctx, so the HTTP client has no timeout of its own.
func NewMistralProvider(apiKey, modelName string) *MistralProvider {
	return &MistralProvider{
		apiKey:    apiKey,
		modelName: modelName,
		endpoint:  mistralChatURL,
		client:    &http.Client{},
	}
}

// ProviderName returns "mistral"
func (m *MistralProvider) ProviderName() string {
	return "mistral"
}

// Mistral chat API request/response structures
type mistralContentPart struct {
	Type     string `json:"type"`                // "text" or "image_url"
	Text     string `json:"text,omitempty"`      // for type="text"
	ImageURL string `json:"image_url,omitempty"` // base64 data URL for type="image_url"
}

type mistralMessage struct {
	Role    string               `json:"role"`
	Content []mistralContentPart `json:"content"`
}

type mistralResponseFormat struct {
	Type string `json:"type"`
}

type mistralChatRequest struct {
	Model          string                `json:"model"`
	Messages       []mistralMessage      `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens"`
	ResponseFormat mistralResponseFormat `json:"response_format"`
}

type mistralChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type mistralErrorResponse struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt and optional image as one chat message in JSON mode.
func (m *MistralProvider) Complete(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	reqCtx := common.FromContext(ctx)

	parts := []mistralContentPart{{Type: "text", Text: prompt}}
	if image != nil && len(image.Data) > 0 {
		imageURL := fmt.Sprintf("data:%s;base64,%s", image.ContentType, base64.StdEncoding.EncodeToString(image.Data))
		parts = append(parts, mistralContentPart{Type: "image_url", ImageURL: imageURL})
		reqCtx.LogInfo("📊 Image size: %.2f KB, MIME type: %s", float64(len(image.Data))/1024.0, image.ContentType)
	}

	request := mistralChatRequest{
		Model:          m.modelName,
		Messages:       []mistralMessage{{Role: "user", Content: parts}},
		Temperature:    0.2,
		MaxTokens:      1024,
		ResponseFormat: mistralResponseFormat{Type: "json_object"},
	}

	reqCtx.LogInfo("🔷 Mistral model: %s | prompt %d chars", m.modelName, len(prompt))

	response, err := m.callChatAPI(ctx, request)
	if err != nil {
		return "", err
	}

	usage := common.TokenUsage{
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		TotalTokens:  response.Usage.TotalTokens,
	}
	reqCtx.AddTokens(usage)

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from Mistral API")
	}
	return response.Choices[0].Message.Content, nil
}

// callChatAPI makes the HTTP request to the chat completions endpoint
func (m *MistralProvider) callChatAPI(ctx context.Context, request mistralChatRequest) (*mistralChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", m.apiKey))

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		var errorResp mistralErrorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if errorResp.Error.Message != "" {
				msg = errorResp.Error.Message
			} else if errorResp.Message != "" {
				msg = errorResp.Message
			}
		}
		return nil, &APIStatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	var response mistralChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &response, nil
}
