// analyzer.go - Primary (model-backed) complaint analysis

package ai

import (
	"context"
	"fmt"

	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/processor"
)

// AnalyzerOptions controls image handling before the model call.
type AnalyzerOptions struct {
	PreprocessImages  bool
	MaxImageDimension int
}

// PrimaryAnalyzer builds the prompt, calls the completion capability once and validates the reply.
type PrimaryAnalyzer struct {
	completer Completer
	opts      AnalyzerOptions
}

// NewPrimaryAnalyzer wraps a Completer. A nil completer yields an analyzer that is never configured.
func NewPrimaryAnalyzer(completer Completer, opts AnalyzerOptions) *PrimaryAnalyzer {
	return &PrimaryAnalyzer{completer: completer, opts: opts}
}

// Configured reports whether a completion capability is available.
func (a *PrimaryAnalyzer) Configured() bool {
	return a != nil && a.completer != nil
}

// ProviderName returns the configured provider, or "none".
func (a *PrimaryAnalyzer) ProviderName() string {
	if !a.Configured() {
		return "none"
	}
	return a.completer.ProviderName()
}

// Analyze runs exactly one completion call for req.
// Transport failures come back as *domain.ExternalServiceError and rejected replies
// as *domain.ValidationError; neither is retried here.
func (a *PrimaryAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Assessment, error) {
	if !a.Configured() {
		return domain.Assessment{}, domain.ErrNotApplicable
	}
	reqCtx := common.FromContext(ctx)
	provider := a.completer.ProviderName()

	image := req.Image
	if req.HasImage() && a.opts.PreprocessImages {
		reqCtx.StartSubStep("image_preprocessing")
		prepared, err := processor.PrepareImage(req.Image, a.opts.MaxImageDimension)
		if err != nil {
			reqCtx.LogWarning("Image preprocessing failed, using original: %v", err)
		}
		image = prepared
		reqCtx.EndSubStep(fmt.Sprintf("%d → %d bytes", len(req.Image.Data), len(image.Data)))
	} else if !req.HasImage() {
		image = nil
	}

	reqCtx.StartSubStep("build_prompt")
	prompt := BuildComplaintPrompt(req.Title, req.Description, image != nil)
	reqCtx.EndSubStep(fmt.Sprintf("%d chars", len(prompt)))

	reqCtx.StartSubStep("call_model")
	raw, err := a.completer.Complete(ctx, prompt, image)
	if err != nil {
		svcErr := CategorizeError(provider, err)
		reqCtx.EndSubStep("FAILED: " + string(svcErr.Kind))
		return domain.Assessment{}, svcErr
	}
	reqCtx.EndSubStep(fmt.Sprintf("%s replied with %d chars", provider, len(raw)))

	reqCtx.StartSubStep("validate_response")
	assessment, err := ParseResponse(raw)
	if err != nil {
		reqCtx.EndSubStep("REJECTED")
		reqCtx.LogWarning("Model reply rejected: %v | preview: %s", err, preview(raw, 200))
		return domain.Assessment{}, err
	}
	reqCtx.EndSubStep(fmt.Sprintf("category=%s severity=%s priority=%s", assessment.Category, assessment.Severity, assessment.Priority))

	return assessment, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "... (truncated)"
}
