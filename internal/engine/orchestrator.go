// orchestrator.go - Analysis state machine: primary model path with keyword fallback

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/townsquare/complaint_analyzer/internal/ai"
	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/processor"
)

// State is one node of the analysis state machine.
type State string

const (
	StateStart              State = "start"
	StateTryPrimary         State = "try_primary"
	StateSuccess            State = "success"
	StatePrimaryUnavailable State = "primary_unavailable"
	StatePrimaryFailed      State = "primary_failed"
	StateTryFallback        State = "try_fallback"
	StateCompose            State = "compose"
	StateDone               State = "done"
)

// DefaultPrimaryTimeout bounds the external call when Config leaves it unset.
const DefaultPrimaryTimeout = 45 * time.Second

// Config is the deployment policy for one Orchestrator.
type Config struct {
	// RequireImage skips the primary path for text-only submissions.
	RequireImage bool
	// PrimaryTimeout bounds the external completion call.
	PrimaryTimeout time.Duration
}

// PrimaryAnalyzer is the model-backed path. *ai.PrimaryAnalyzer implements it.
type PrimaryAnalyzer interface {
	Configured() bool
	ProviderName() string
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Assessment, error)
}

// Outcome is the result of one run plus the states it passed through.
type Outcome struct {
	Result     domain.AnalysisResult
	Path       []State
	PrimaryErr error
}

// Final returns the last state visited.
func (o Outcome) Final() State {
	if len(o.Path) == 0 {
		return ""
	}
	return o.Path[len(o.Path)-1]
}

// Visited reports whether s appears in the path.
func (o Outcome) Visited(s State) bool {
	for _, p := range o.Path {
		if p == s {
			return true
		}
	}
	return false
}

// Orchestrator sequences primary analysis, fallback classification and composition.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	primary    PrimaryAnalyzer
	classifier *processor.RuleBasedClassifier
	cfg        Config
}

// NewOrchestrator wires the two analyzers. A nil primary means fallback-only operation;
// a nil classifier uses the built-in vocabulary.
func NewOrchestrator(primary PrimaryAnalyzer, classifier *processor.RuleBasedClassifier, cfg Config) *Orchestrator {
	if classifier == nil {
		classifier = processor.NewRuleBasedClassifier(nil)
	}
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = DefaultPrimaryTimeout
	}
	return &Orchestrator{primary: primary, classifier: classifier, cfg: cfg}
}

// Analyze always returns a fully populated result.
func (o *Orchestrator) Analyze(ctx context.Context, req domain.AnalysisRequest) domain.AnalysisResult {
	return o.Run(ctx, req).Result
}

// Run executes the state machine and reports how the result was reached.
func (o *Orchestrator) Run(ctx context.Context, req domain.AnalysisRequest) Outcome {
	ctx, reqCtx := common.EnsureRequestContext(ctx, req.Title)

	out := Outcome{Path: []State{StateStart}}
	state := StateTryPrimary
	if reason := o.skipReason(req); reason != "" {
		reqCtx.StartStep("try_primary")
		reqCtx.LogInfo("Primary analysis skipped: %s", reason)
		reqCtx.EndStep(common.StatusSkipped, nil)
		state = StateTryFallback
	}

	var assessment domain.Assessment
	var diagnostic string

	for {
		out.Path = append(out.Path, state)

		switch state {
		case StateTryPrimary:
			reqCtx.StartStep("try_primary")
			a, err := o.callPrimary(ctx, req)
			switch {
			case err == nil:
				reqCtx.EndStep(common.StatusSuccess, nil)
				assessment = a
				state = StateSuccess
			case errors.Is(err, domain.ErrNotApplicable):
				reqCtx.EndStep(common.StatusSkipped, nil)
				state = StateTryFallback
			case domain.IsExternalServiceError(err):
				reqCtx.EndStep(common.StatusFailed, err)
				out.PrimaryErr = err
				state = StatePrimaryUnavailable
			default:
				reqCtx.EndStep(common.StatusFailed, err)
				out.PrimaryErr = err
				state = StatePrimaryFailed
			}

		case StateSuccess:
			state = StateCompose

		case StatePrimaryUnavailable:
			var svcErr *domain.ExternalServiceError
			errors.As(out.PrimaryErr, &svcErr)
			diagnostic = fmt.Sprintf("Primary analysis unavailable (%s)", svcErr.Kind)
			if hint := ai.OperatorHint(svcErr); hint != "" {
				reqCtx.LogWarning("%s: %s", svcErr.Error(), hint)
			}
			state = StateTryFallback

		case StatePrimaryFailed:
			diagnostic = fmt.Sprintf("Primary analysis rejected: %v", out.PrimaryErr)
			state = StateTryFallback

		case StateTryFallback:
			reqCtx.StartStep("try_fallback")
			assessment = o.classifier.Assess(req)
			reqCtx.EndStep(common.StatusSuccess, nil)
			reqCtx.LogInfo("Keyword fallback: category=%s score=%.3f severity_hint=%s",
				assessment.Category, assessment.Confidence.Score, assessment.SeverityHint)
			state = StateCompose

		case StateCompose:
			reqCtx.StartStep("compose")
			out.Result = processor.Compose(assessment)
			if diagnostic != "" {
				out.Result.Notes = joinNotes(diagnostic+"; keyword fallback used", out.Result.Notes)
			}
			reqCtx.EndStep(common.StatusSuccess, nil)
			state = StateDone

		case StateDone:
			reqCtx.LogInfo("Analysis done: source=%s category=%s severity=%s priority=%s",
				out.Result.Source, out.Result.Category, out.Result.Severity, out.Result.Priority)
			return out
		}
	}
}

// skipReason returns why the primary path does not apply to req, or "".
func (o *Orchestrator) skipReason(req domain.AnalysisRequest) string {
	if o.primary == nil || !o.primary.Configured() {
		return "no completion provider configured"
	}
	if o.cfg.RequireImage && !req.HasImage() {
		return "no image supplied and an image is required"
	}
	return ""
}

type primaryReply struct {
	assessment domain.Assessment
	err        error
}

// callPrimary runs the primary analyzer under the configured timeout. A call that ignores
// ctx is abandoned when the deadline passes; a panic becomes an ordinary error.
func (o *Orchestrator) callPrimary(ctx context.Context, req domain.AnalysisRequest) (domain.Assessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.PrimaryTimeout)
	defer cancel()

	// The call logs into its own scope, merged back only if it replies in time.
	reqCtx := common.FromContext(ctx)
	callLog := reqCtx.Fork()
	callCtx = common.WithRequestContext(callCtx, callLog)

	done := make(chan primaryReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- primaryReply{err: fmt.Errorf("primary analyzer panicked: %v", r)}
			}
		}()
		a, err := o.primary.Analyze(callCtx, req)
		done <- primaryReply{assessment: a, err: err}
	}()

	select {
	case reply := <-done:
		reqCtx.Merge(callLog)
		return reply.assessment, reply.err
	case <-callCtx.Done():
		reqCtx.LogWarning("Primary call abandoned: %v", callCtx.Err())
		kind := domain.ServiceUnavailable
		msg := "request cancelled"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			kind = domain.ServiceTimeout
			msg = fmt.Sprintf("no reply within %v", o.cfg.PrimaryTimeout)
		}
		return domain.Assessment{}, &domain.ExternalServiceError{
			Kind:     kind,
			Provider: o.primary.ProviderName(),
			Message:  msg,
			Err:      callCtx.Err(),
		}
	}
}

func joinNotes(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += p
	}
	return out
}
