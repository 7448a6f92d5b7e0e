package ai

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/ratelimit"
	"google.golang.org/api/googleapi"
)

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	prompt string
	image  *domain.Image
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, image *domain.Image) (string, error) {
	f.calls++
	f.prompt = prompt
	f.image = image
	return f.reply, f.err
}

func (f *fakeCompleter) ProviderName() string { return "fake" }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnalyzeSuccess(t *testing.T) {
	fake := &fakeCompleter{reply: validReply}
	a := NewPrimaryAnalyzer(fake, AnalyzerOptions{})

	req := domain.AnalysisRequest{
		Title:       "Pothole on Main St",
		Description: "Large hole near the bus stop",
		Image:       &domain.Image{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"},
	}
	got, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Category != domain.CategoryRoad {
		t.Fatalf("category = %s", got.Category)
	}
	if fake.calls != 1 {
		t.Fatalf("completer called %d times, want 1", fake.calls)
	}
	if !strings.Contains(fake.prompt, "Pothole on Main St") || !strings.Contains(fake.prompt, "Large hole near the bus stop") {
		t.Fatal("prompt is missing the complaint text")
	}
	if fake.image == nil || string(fake.image.Data) != "jpeg-bytes" {
		t.Fatal("image not forwarded unchanged when preprocessing is off")
	}
}

func TestAnalyzeServiceErrorIsNotRetried(t *testing.T) {
	fake := &fakeCompleter{err: &googleapi.Error{Code: 503}}
	a := NewPrimaryAnalyzer(fake, AnalyzerOptions{})

	_, err := a.Analyze(context.Background(), domain.AnalysisRequest{Title: "t", Description: "d"})
	var svcErr *domain.ExternalServiceError
	if !errors.As(err, &svcErr) || svcErr.Kind != domain.ServiceUnavailable {
		t.Fatalf("error = %v, want unavailable ExternalServiceError", err)
	}
	if fake.calls != 1 {
		t.Fatalf("completer called %d times, want exactly 1", fake.calls)
	}
}

func TestAnalyzePropagatesValidationError(t *testing.T) {
	fake := &fakeCompleter{reply: `{"category": "road", "priority": "high"}`}
	a := NewPrimaryAnalyzer(fake, AnalyzerOptions{})

	_, err := a.Analyze(context.Background(), domain.AnalysisRequest{Title: "t", Description: "d"})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) || valErr.Kind != domain.MissingField || valErr.Field != "severity" {
		t.Fatalf("error = %v, want missing severity", err)
	}
}

func TestAnalyzeNotConfigured(t *testing.T) {
	a := NewPrimaryAnalyzer(nil, AnalyzerOptions{})
	if a.Configured() {
		t.Fatal("nil completer should not be configured")
	}
	if a.ProviderName() != "none" {
		t.Fatalf("provider = %q", a.ProviderName())
	}
	if _, err := a.Analyze(context.Background(), domain.AnalysisRequest{}); !errors.Is(err, domain.ErrNotApplicable) {
		t.Fatalf("error = %v, want ErrNotApplicable", err)
	}
}

func TestAnalyzePreprocessesImage(t *testing.T) {
	fake := &fakeCompleter{reply: validReply}
	a := NewPrimaryAnalyzer(fake, AnalyzerOptions{PreprocessImages: true, MaxImageDimension: 100})

	req := domain.AnalysisRequest{
		Title:       "t",
		Description: "d",
		Image:       &domain.Image{Data: testPNG(t, 400, 200), ContentType: "image/png"},
	}
	if _, err := a.Analyze(context.Background(), req); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if fake.image == nil || bytes.Equal(fake.image.Data, req.Image.Data) {
		t.Fatal("expected a downscaled image to be sent")
	}
}

func TestAnalyzeSendsOriginalWhenImageUndecodable(t *testing.T) {
	fake := &fakeCompleter{reply: validReply}
	a := NewPrimaryAnalyzer(fake, AnalyzerOptions{PreprocessImages: true, MaxImageDimension: 100})

	original := &domain.Image{Data: []byte("not an image"), ContentType: "image/jpeg"}
	if _, err := a.Analyze(context.Background(), domain.AnalysisRequest{Title: "t", Description: "d", Image: original}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if fake.image != original {
		t.Fatal("expected the original image after preprocessing failure")
	}
}

func TestBuildComplaintPromptListsSchema(t *testing.T) {
	prompt := BuildComplaintPrompt("Broken lamp", "Dark corner", true)
	for _, want := range []string{
		`"category": "garbage|road|streetlight|water|noise|traffic|other"`,
		`"severity": "low|medium|high"`,
		`"estimated_resolution_time": "1-2 days|1 week|2-4 weeks|1+ months"`,
		`"ai_insights"`,
		"Electrical Services",
		"lowercase",
		"Analyze this image",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Contains(BuildComplaintPrompt("a", "b", false), "this image") {
		t.Error("text-only prompt should not mention an image")
	}
}

func TestThrottleReturnsRateLimitedWhenWaitExpires(t *testing.T) {
	fake := &fakeCompleter{reply: validReply}
	limiter := ratelimit.NewLimiter(1, 1, time.Hour)
	c := Throttle(fake, limiter)

	if _, err := c.Complete(context.Background(), "p", nil); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, "p", nil)
	var svcErr *domain.ExternalServiceError
	if !errors.As(err, &svcErr) || svcErr.Kind != domain.ServiceRateLimited {
		t.Fatalf("error = %v, want rate_limited", err)
	}
	if fake.calls != 1 {
		t.Fatalf("throttled call reached provider: calls = %d", fake.calls)
	}
	if c.ProviderName() != "fake" {
		t.Fatalf("provider = %q", c.ProviderName())
	}
}

func TestThrottleWithoutLimiterIsIdentity(t *testing.T) {
	fake := &fakeCompleter{}
	if Throttle(fake, nil) != Completer(fake) {
		t.Fatal("expected the completer back unchanged")
	}
}
