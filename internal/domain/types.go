// types.go - Closed vocabularies and the request/result values of a complaint analysis

package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of complaint categories.
type Category string

const (
	CategoryGarbage     Category = "garbage"
	CategoryRoad        Category = "road"
	CategoryStreetlight Category = "streetlight"
	CategoryWater       Category = "water"
	CategoryNoise       Category = "noise"
	CategoryTraffic     Category = "traffic"
	CategoryOther       Category = "other"
)

// Categories lists every category in declaration order.
// The rule-based classifier breaks score ties by this order (first declared wins).
var Categories = []Category{
	CategoryGarbage,
	CategoryRoad,
	CategoryStreetlight,
	CategoryWater,
	CategoryNoise,
	CategoryTraffic,
	CategoryOther,
}

var categoryDisplayNames = map[Category]string{
	CategoryGarbage:     "Garbage & Waste",
	CategoryRoad:        "Road & Infrastructure",
	CategoryStreetlight: "Street Lighting",
	CategoryWater:       "Water & Sewage",
	CategoryNoise:       "Noise Pollution",
	CategoryTraffic:     "Traffic & Transportation",
	CategoryOther:       "Other Issues",
}

// DisplayName returns the human-readable label for a category.
func (c Category) DisplayName() string {
	if name, ok := categoryDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// Severity reflects objective harm or risk.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Rank orders severities so they can be compared (low < medium < high).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// Priority reflects urgency of action.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank orders priorities so they can be compared (low < medium < high).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// ResolutionEstimate is a resolution-time bucket.
type ResolutionEstimate string

const (
	ResolutionDays     ResolutionEstimate = "1-2 days"
	ResolutionWeek     ResolutionEstimate = "1 week"
	ResolutionWeeks    ResolutionEstimate = "2-4 weeks"
	ResolutionMonthOut ResolutionEstimate = "1+ months"
)

var ResolutionEstimates = []ResolutionEstimate{ResolutionDays, ResolutionWeek, ResolutionWeeks, ResolutionMonthOut}

// ConfidenceLevel is the qualitative confidence reported by the primary analyzer.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

var ConfidenceLevels = []ConfidenceLevel{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}

// Source names the path that produced the category.
type Source string

const (
	SourceAI        Source = "ai"
	SourceRuleBased Source = "rule_based"
)

// Confidence is the single reporting shape for both analyzers:
// a qualitative level plus a score in [0,1].
type Confidence struct {
	Level ConfidenceLevel `json:"level" yaml:"level" bson:"level"`
	Score float64         `json:"score" yaml:"score" bson:"score"`
}

// Image is an uploaded photograph with its declared content type.
type Image struct {
	Data        []byte
	ContentType string
}

// AnalysisRequest is the immutable input of one analysis.
type AnalysisRequest struct {
	Title       string
	Description string
	Image       *Image
}

// HasImage reports whether the request carries a non-empty image.
func (r AnalysisRequest) HasImage() bool {
	return r.Image != nil && len(r.Image.Data) > 0
}

// Text returns the title and description joined for keyword matching.
func (r AnalysisRequest) Text() string {
	return r.Title + " " + r.Description
}

// Assessment is a partially populated analysis produced by either analyzer.
// Zero values mean "not provided"; the composer fills them in.
type Assessment struct {
	Category       Category
	Severity       Severity
	Priority       Priority
	Resolution     ResolutionEstimate
	Department     string
	Actions        []string
	SafetyConcerns string
	Confidence     *Confidence
	Insights       string
	Source         Source

	// SeverityHint is the keyword severity signal from the fallback path.
	// It may escalate a table severity but never lowers one.
	SeverityHint Severity
}

// AnalysisResult is the fully populated output of the engine.
type AnalysisResult struct {
	Category           Category           `json:"category" yaml:"category" bson:"category"`
	Severity           Severity           `json:"severity" yaml:"severity" bson:"severity"`
	Priority           Priority           `json:"priority" yaml:"priority" bson:"priority"`
	ResolutionEstimate ResolutionEstimate `json:"resolution_estimate" yaml:"resolution_estimate" bson:"resolution_estimate"`
	AssignedDepartment string             `json:"assigned_department" yaml:"assigned_department" bson:"assigned_department"`
	RecommendedActions []string           `json:"recommended_actions" yaml:"recommended_actions" bson:"recommended_actions"`
	SafetyConcerns     string             `json:"safety_concerns" yaml:"safety_concerns" bson:"safety_concerns"`
	Confidence         Confidence         `json:"confidence" yaml:"confidence" bson:"confidence"`
	Source             Source             `json:"source" yaml:"source" bson:"source"`
	Notes              string             `json:"notes,omitempty" yaml:"notes,omitempty" bson:"notes,omitempty"`
}

// MaxRecommendedActions bounds the length of RecommendedActions.
const MaxRecommendedActions = 6

// Validate checks that every field of the result is populated and in vocabulary.
func (r AnalysisResult) Validate() error {
	if !contains(Categories, r.Category) {
		return fmt.Errorf("category %q out of vocabulary", r.Category)
	}
	if !contains(Severities, r.Severity) {
		return fmt.Errorf("severity %q out of vocabulary", r.Severity)
	}
	if !contains(Priorities, r.Priority) {
		return fmt.Errorf("priority %q out of vocabulary", r.Priority)
	}
	if !contains(ResolutionEstimates, r.ResolutionEstimate) {
		return fmt.Errorf("resolution estimate %q out of vocabulary", r.ResolutionEstimate)
	}
	if !contains(ConfidenceLevels, r.Confidence.Level) {
		return fmt.Errorf("confidence level %q out of vocabulary", r.Confidence.Level)
	}
	if r.Confidence.Score < 0 || r.Confidence.Score > 1 {
		return fmt.Errorf("confidence score %v outside [0,1]", r.Confidence.Score)
	}
	if r.Source != SourceAI && r.Source != SourceRuleBased {
		return fmt.Errorf("source %q out of vocabulary", r.Source)
	}
	if strings.TrimSpace(r.AssignedDepartment) == "" {
		return fmt.Errorf("assigned department is empty")
	}
	if n := len(r.RecommendedActions); n < 1 || n > MaxRecommendedActions {
		return fmt.Errorf("recommended actions has %d entries, want 1-%d", n, MaxRecommendedActions)
	}
	return nil
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](values []T, raw string) (T, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, v := range values {
		if string(v) == normalized {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ParseCategory matches raw against the category vocabulary, ignoring case and surrounding space.
func ParseCategory(raw string) (Category, bool) { return parseEnum(Categories, raw) }

func ParseSeverity(raw string) (Severity, bool) { return parseEnum(Severities, raw) }

func ParsePriority(raw string) (Priority, bool) { return parseEnum(Priorities, raw) }

func ParseResolution(raw string) (ResolutionEstimate, bool) {
	return parseEnum(ResolutionEstimates, raw)
}

func ParseConfidenceLevel(raw string) (ConfidenceLevel, bool) {
	return parseEnum(ConfidenceLevels, raw)
}
