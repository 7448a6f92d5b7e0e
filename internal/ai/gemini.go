// gemini.go - Gemini completion provider

package ai

import (
	"context"
	"fmt"
	"strings"

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/processor"
	"google.golang.org/api/option"
)

// GeminiProvider implements Completer using the Gemini API
type GeminiProvider struct {
	apiKey        string
	modelName     string
	clientOptions []option.ClientOption
}

// NewGeminiProvider creates a new Gemini provider. Extra client options
// (for example option.WithEndpoint) are applied after the API key.
func NewGeminiProvider(apiKey, modelName string, opts ...option.ClientOption) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, modelName: modelName, clientOptions: opts}
}

// ProviderName returns "gemini"
func (g *GeminiProvider) ProviderName() string {
	return "gemini"
}

// newClient builds a REST client whose GenerateContent call carries no retry policy.
// The SDK default retries 503 with backoff until the context expires.
func (g *GeminiProvider) newClient(ctx context.Context) (*gl.GenerativeClient, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.clientOptions...)
	client, err := gl.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client.CallOptions.GenerateContent = nil
	return client, nil
}

// Complete sends the prompt and optional image in one GenerateContent call
// with a JSON response schema constraining the enumerated fields.
func (g *GeminiProvider) Complete(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	reqCtx := common.FromContext(ctx)

	client, err := g.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	parts := []*pb.Part{{Data: &pb.Part_Text{Text: prompt}}}
	if image != nil && len(image.Data) > 0 {
		parts = append(parts, &pb.Part{Data: &pb.Part_InlineData{InlineData: &pb.Blob{
			MimeType: image.ContentType,
			Data:     image.Data,
		}}})
	}

	req := &pb.GenerateContentRequest{
		Model:    modelResourceName(g.modelName),
		Contents: []*pb.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &pb.GenerationConfig{
			Temperature:      ptr(float32(0.2)),
			MaxOutputTokens:  ptr(int32(2048)),
			ResponseMimeType: "application/json",
			ResponseSchema:   complaintSchema(),
		},
	}

	reqCtx.LogInfo("🔵 Gemini model: %s | prompt %d chars | %d part(s)", g.modelName, len(prompt), len(parts))

	resp, err := client.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}

	if usage := resp.GetUsageMetadata(); usage != nil {
		tokens := common.TokenUsage{
			InputTokens:  int(usage.GetPromptTokenCount()),
			OutputTokens: int(usage.GetCandidatesTokenCount()),
			TotalTokens:  int(usage.GetTotalTokenCount()),
		}
		reqCtx.AddTokens(tokens)
		reqCtx.LogInfo("🪙 Tokens: %d in + %d out = %d", tokens.InputTokens, tokens.OutputTokens, tokens.TotalTokens)
	}

	if len(resp.GetCandidates()) == 0 || resp.GetCandidates()[0].GetContent() == nil {
		return "", fmt.Errorf("no response from Gemini API")
	}

	var text strings.Builder
	for _, part := range resp.GetCandidates()[0].GetContent().GetParts() {
		text.WriteString(part.GetText())
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	return text.String(), nil
}

func modelResourceName(name string) string {
	if strings.HasPrefix(name, "models/") || strings.HasPrefix(name, "tunedModels/") {
		return name
	}
	return "models/" + name
}

func enumSchema[T ~string](values []T, description string) *pb.Schema {
	enum := make([]string, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &pb.Schema{Type: pb.Type_STRING, Format: "enum", Enum: enum, Description: description}
}

// complaintSchema mirrors the keys requested by BuildComplaintPrompt.
func complaintSchema() *pb.Schema {
	return &pb.Schema{
		Type: pb.Type_OBJECT,
		Properties: map[string]*pb.Schema{
			keyCategory:   enumSchema(domain.Categories, "Complaint category"),
			keySeverity:   enumSchema(domain.Severities, "Objective harm or risk"),
			keyPriority:   enumSchema(domain.Priorities, "Urgency of action"),
			keyResolution: enumSchema(domain.ResolutionEstimates, "Estimated resolution time bucket"),
			keyDepartment: enumSchema(processor.Departments(), "Department that should handle the complaint"),
			keyActions: {
				Type:        pb.Type_ARRAY,
				Items:       &pb.Schema{Type: pb.Type_STRING},
				Description: "Recommended actions for city officials",
			},
			keySafetyConcerns: {Type: pb.Type_STRING, Description: "Immediate safety risks, empty if none"},
			keyConfidence:     enumSchema(domain.ConfidenceLevels, "Confidence in this assessment"),
			keyInsights:       {Type: pb.Type_STRING, Description: "Additional insights about the issue"},
		},
		Required: []string{keyCategory, keySeverity, keyPriority},
	}
}

// ptr returns a pointer to v
func ptr[T any](v T) *T {
	return &v
}
