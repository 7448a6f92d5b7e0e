// request_context.go - Request tracking and logging system

package common

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestContext tracks one analysis with step timing and token usage.
// Methods are safe for concurrent use. Work that may outlive its step logs
// through a Fork so late sub-steps cannot land on a later step.
type RequestContext struct {
	RequestID           string
	Label               string
	StartTime           time.Time
	Steps               []StepLog
	TotalTokens         TokenUsage
	CurrentStep         string
	CurrentStepStart    time.Time
	CurrentSubSteps     []SubStepLog
	CurrentSubStep      string
	CurrentSubStepStart time.Time

	mu sync.Mutex
}

// StepLog represents a single processing step
type StepLog struct {
	Name      string       `json:"name"`
	StartTime time.Time    `json:"start_time"`
	Duration  int64        `json:"duration_ms"`
	Status    string       `json:"status"` // "success", "failed", "skipped"
	Error     string       `json:"error,omitempty"`
	SubSteps  []SubStepLog `json:"sub_steps,omitempty"`
}

// SubStepLog represents a detailed sub-operation within a step
type SubStepLog struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration_ms"`
	Details   string    `json:"details,omitempty"`
}

// TokenUsage tracks model token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Step statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

var stepDescriptions = map[string]string{
	"try_primary":  "🤖 Model analysis",
	"try_fallback": "🔍 Keyword classification",
	"compose":      "🧩 Compose insights",
	"audit":        "🗄️ Audit record",
}

var subStepDescriptions = map[string]string{
	"image_preprocessing": "🔧 Prepare image",
	"build_prompt":        "📢 Build prompt",
	"call_model":          "🚀 Call model",
	"validate_response":   "🔄 Validate response",
}

// NewRequestContext creates a new request tracking context
func NewRequestContext(label string) *RequestContext {
	reqID := uuid.New().String()
	now := time.Now()

	log.Printf("[%s] 🚀 New analysis | %s | %s", reqID, label, now.Format("15:04:05"))

	return &RequestContext{
		RequestID: reqID,
		Label:     label,
		StartTime: now,
		Steps:     []StepLog{},
	}
}

type contextKey struct{}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the RequestContext carried by ctx, or a fresh one labelled "detached".
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(contextKey{}).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{RequestID: "detached", StartTime: time.Now()}
}

// EnsureRequestContext returns ctx unchanged when it already carries a RequestContext,
// otherwise it starts a new one with the given label and attaches it.
func EnsureRequestContext(ctx context.Context, label string) (context.Context, *RequestContext) {
	if rc, ok := ctx.Value(contextKey{}).(*RequestContext); ok && rc != nil {
		return ctx, rc
	}
	rc := NewRequestContext(label)
	return WithRequestContext(ctx, rc), rc
}

// StartStep begins tracking a new processing step
func (rc *RequestContext) StartStep(stepName string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.CurrentStep = stepName
	rc.CurrentStepStart = time.Now()
	rc.CurrentSubSteps = nil

	desc := stepDescriptions[stepName]
	if desc == "" {
		desc = stepName
	}
	log.Printf("[%s] ┌── %s", rc.RequestID, desc)
}

// EndStep completes the current step and records timing
func (rc *RequestContext) EndStep(status string, err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	duration := time.Since(rc.CurrentStepStart).Milliseconds()

	stepLog := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration,
		Status:    status,
		SubSteps:  rc.CurrentSubSteps,
	}

	switch {
	case err != nil:
		stepLog.Error = err.Error()
		log.Printf("[%s] └── ❌ %s %s (%.2fs): %v",
			rc.RequestID, rc.CurrentStep, status, float64(duration)/1000, err)
	case status == StatusSkipped:
		log.Printf("[%s] └── ⏭️  skipped", rc.RequestID)
	default:
		msg := fmt.Sprintf("[%s] └── ✅ %s: %.2fs", rc.RequestID, status, float64(duration)/1000)
		if len(rc.CurrentSubSteps) > 0 {
			msg += fmt.Sprintf(" | sub-steps: %d", len(rc.CurrentSubSteps))
		}
		log.Print(msg)
	}

	rc.Steps = append(rc.Steps, stepLog)
	rc.CurrentStep = ""
	rc.CurrentSubSteps = nil
}

// StartSubStep begins tracking a detailed sub-operation
func (rc *RequestContext) StartSubStep(subStepName string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.CurrentSubStep = subStepName
	rc.CurrentSubStepStart = time.Now()

	desc := subStepDescriptions[subStepName]
	if desc == "" {
		desc = subStepName
	}
	log.Printf("[%s]    ├─ %s...", rc.RequestID, desc)
}

// EndSubStep completes the current sub-step and records timing
func (rc *RequestContext) EndSubStep(details string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.CurrentSubStep == "" {
		return
	}

	duration := time.Since(rc.CurrentSubStepStart).Milliseconds()
	rc.CurrentSubSteps = append(rc.CurrentSubSteps, SubStepLog{
		Name:      rc.CurrentSubStep,
		StartTime: rc.CurrentSubStepStart,
		Duration:  duration,
		Details:   details,
	})

	detailsMsg := ""
	if details != "" {
		detailsMsg = " | " + details
	}
	log.Printf("[%s]    └─ ✅ %.2fs%s", rc.RequestID, float64(duration)/1000, detailsMsg)

	rc.CurrentSubStep = ""
}

// Fork returns a RequestContext with the same request ID whose sub-steps and
// token usage are kept apart from rc until passed to Merge.
func (rc *RequestContext) Fork() *RequestContext {
	return &RequestContext{
		RequestID: rc.RequestID,
		Label:     rc.Label,
		StartTime: time.Now(),
		Steps:     []StepLog{},
	}
}

// Merge attaches the sub-steps child finished to the current step of rc
// and adds its token usage. A forked context that is never merged leaves rc untouched.
func (rc *RequestContext) Merge(child *RequestContext) {
	if child == nil || child == rc {
		return
	}
	child.mu.Lock()
	subSteps := append([]SubStepLog(nil), child.CurrentSubSteps...)
	tokens := child.TotalTokens
	child.mu.Unlock()

	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.CurrentSubSteps = append(rc.CurrentSubSteps, subSteps...)
	rc.TotalTokens.InputTokens += tokens.InputTokens
	rc.TotalTokens.OutputTokens += tokens.OutputTokens
	rc.TotalTokens.TotalTokens += tokens.TotalTokens
}

// AddTokens accumulates token usage reported by a provider
func (rc *RequestContext) AddTokens(usage TokenUsage) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.TotalTokens.InputTokens += usage.InputTokens
	rc.TotalTokens.OutputTokens += usage.OutputTokens
	rc.TotalTokens.TotalTokens += usage.TotalTokens
}

// StepStatus returns the status of the most recent step with the given name, or "".
func (rc *RequestContext) StepStatus(name string) string {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for i := len(rc.Steps) - 1; i >= 0; i-- {
		if rc.Steps[i].Name == name {
			return rc.Steps[i].Status
		}
	}
	return ""
}

// GetSummary returns a final summary of the entire request
func (rc *RequestContext) GetSummary() map[string]interface{} {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	totalDuration := time.Since(rc.StartTime).Milliseconds()

	stepBreakdown := make(map[string]int64)
	stepStatus := make(map[string]string)
	for _, step := range rc.Steps {
		stepBreakdown[step.Name] = step.Duration
		stepStatus[step.Name] = step.Status
	}

	summary := map[string]interface{}{
		"request_id":         rc.RequestID,
		"total_duration_ms":  totalDuration,
		"total_duration_sec": float64(totalDuration) / 1000,
		"step_breakdown":     stepBreakdown,
		"step_status":        stepStatus,
		"total_steps":        len(rc.Steps),
		"token_usage": map[string]interface{}{
			"input_tokens":  rc.TotalTokens.InputTokens,
			"output_tokens": rc.TotalTokens.OutputTokens,
			"total_tokens":  rc.TotalTokens.TotalTokens,
		},
	}

	log.Printf("[%s] ═══ 🎯 Summary ═══", rc.RequestID)
	log.Printf("[%s] ⏱️  total: %.2fs | 📝 steps: %d | 🪙 tokens: %s in + %s out = %s",
		rc.RequestID,
		float64(totalDuration)/1000,
		len(rc.Steps),
		formatNumber(rc.TotalTokens.InputTokens),
		formatNumber(rc.TotalTokens.OutputTokens),
		formatNumber(rc.TotalTokens.TotalTokens))

	return summary
}

// LogInfo logs info-level message with request ID prefix
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ℹ️  %s", rc.RequestID, msg)
}

// LogWarning logs warning-level message with request ID prefix
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ⚠️  %s", rc.RequestID, msg)
}

// LogError logs error-level message with request ID prefix
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] ❌ %s", rc.RequestID, msg)
}

// formatNumber adds comma separators to numbers
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n%1000000)/1000, n%1000)
}
