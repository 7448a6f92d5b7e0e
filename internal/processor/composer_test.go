package processor

import (
	"reflect"
	"testing"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

func TestComposeFallbackUsesCategoryTables(t *testing.T) {
	tests := []struct {
		name       string
		assessment domain.Assessment
		severity   domain.Severity
		priority   domain.Priority
		resolution domain.ResolutionEstimate
		department string
	}{
		{
			name:       "garbage",
			assessment: domain.Assessment{Category: domain.CategoryGarbage, SeverityHint: domain.SeverityMedium},
			severity:   domain.SeverityMedium,
			priority:   domain.PriorityMedium,
			resolution: domain.ResolutionWeek,
			department: "Waste Management",
		},
		{
			name:       "water escalates priority",
			assessment: domain.Assessment{Category: domain.CategoryWater},
			severity:   domain.SeverityMedium,
			priority:   domain.PriorityHigh,
			resolution: domain.ResolutionWeek,
			department: "Water Services",
		},
		{
			name:       "noise stays low",
			assessment: domain.Assessment{Category: domain.CategoryNoise, SeverityHint: domain.SeverityLow},
			severity:   domain.SeverityLow,
			priority:   domain.PriorityLow,
			resolution: domain.ResolutionMonthOut,
			department: "Code Enforcement",
		},
		{
			name:       "high hint escalates road",
			assessment: domain.Assessment{Category: domain.CategoryRoad, SeverityHint: domain.SeverityHigh},
			severity:   domain.SeverityHigh,
			priority:   domain.PriorityHigh,
			resolution: domain.ResolutionDays,
			department: "Public Works",
		},
		{
			name:       "unknown category becomes other",
			assessment: domain.Assessment{Category: "parks"},
			severity:   domain.SeverityMedium,
			priority:   domain.PriorityMedium,
			resolution: domain.ResolutionWeek,
			department: "General Services",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(tt.assessment)
			if got.Severity != tt.severity || got.Priority != tt.priority || got.ResolutionEstimate != tt.resolution {
				t.Fatalf("got %s/%s/%s, want %s/%s/%s", got.Severity, got.Priority, got.ResolutionEstimate,
					tt.severity, tt.priority, tt.resolution)
			}
			if got.AssignedDepartment != tt.department {
				t.Fatalf("department = %q, want %q", got.AssignedDepartment, tt.department)
			}
			if got.Source != domain.SourceRuleBased {
				t.Fatalf("source = %s, want rule_based", got.Source)
			}
			if n := len(got.RecommendedActions); n < 3 || n > 4 {
				t.Fatalf("fallback actions = %d, want 3-4", n)
			}
			if err := got.Validate(); err != nil {
				t.Fatalf("result incomplete: %v", err)
			}
		})
	}
}

func TestComposeFallbackNotes(t *testing.T) {
	got := Compose(domain.Assessment{
		Category:   domain.CategoryGarbage,
		Confidence: &domain.Confidence{Score: 4.0 / 14.0},
		Source:     domain.SourceRuleBased,
	})

	if got.Notes != "Classified using keyword matching with 28.6% confidence" {
		t.Fatalf("notes = %q", got.Notes)
	}
	if got.SafetyConcerns != ruleBasedSafetyNote {
		t.Fatalf("safety = %q", got.SafetyConcerns)
	}
	if got.Confidence.Level != domain.ConfidenceMedium {
		t.Fatalf("confidence level = %s, want medium", got.Confidence.Level)
	}
}

func TestComposeKeepsAnalyzerFields(t *testing.T) {
	a := domain.Assessment{
		Category:       domain.CategoryNoise,
		Severity:       domain.SeverityLow,
		Priority:       domain.PriorityHigh,
		Resolution:     domain.ResolutionWeeks,
		Department:     "Parks Department",
		Actions:        []string{"Measure decibel levels"},
		SafetyConcerns: "",
		Confidence:     &domain.Confidence{Level: domain.ConfidenceHigh},
		Insights:       "Amplified music from a rooftop venue.",
		Source:         domain.SourceAI,
		SeverityHint:   domain.SeverityHigh,
	}

	got := Compose(a)
	want := domain.AnalysisResult{
		Category:           domain.CategoryNoise,
		Severity:           domain.SeverityLow,
		Priority:           domain.PriorityHigh,
		ResolutionEstimate: domain.ResolutionWeeks,
		AssignedDepartment: "Parks Department",
		RecommendedActions: []string{"Measure decibel levels"},
		SafetyConcerns:     "",
		Confidence:         domain.Confidence{Level: domain.ConfidenceHigh, Score: 0.9},
		Source:             domain.SourceAI,
		Notes:              "Amplified music from a rooftop venue.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Compose mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestComposeFillsGapsAfterPrimary(t *testing.T) {
	got := Compose(domain.Assessment{
		Category: domain.CategoryStreetlight,
		Severity: domain.SeverityHigh,
		Priority: domain.PriorityMedium,
		Actions:  []string{"  ", ""},
		Source:   domain.SourceAI,
	})

	if got.ResolutionEstimate != domain.ResolutionDays {
		t.Fatalf("resolution = %s, want 1-2 days", got.ResolutionEstimate)
	}
	if got.Priority != domain.PriorityMedium {
		t.Fatalf("analyzer priority overridden: %s", got.Priority)
	}
	if got.AssignedDepartment != "Electrical Services" {
		t.Fatalf("department = %q", got.AssignedDepartment)
	}
	if len(got.RecommendedActions) != 4 || got.RecommendedActions[0] != "Check electrical connections" {
		t.Fatalf("actions = %v", got.RecommendedActions)
	}
	if got.Confidence.Level != domain.ConfidenceLow {
		t.Fatalf("missing confidence should report low, got %s", got.Confidence.Level)
	}
	if got.SafetyConcerns != "" {
		t.Fatalf("ai path should not invent safety notes, got %q", got.SafetyConcerns)
	}
}

func TestComposeClampsActions(t *testing.T) {
	got := Compose(domain.Assessment{
		Category: domain.CategoryRoad,
		Severity: domain.SeverityMedium,
		Priority: domain.PriorityHigh,
		Actions:  []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		Source:   domain.SourceAI,
	})
	if len(got.RecommendedActions) != domain.MaxRecommendedActions {
		t.Fatalf("actions = %d, want %d", len(got.RecommendedActions), domain.MaxRecommendedActions)
	}
}

func TestComposeIsPure(t *testing.T) {
	a := domain.Assessment{Category: domain.CategoryTraffic, Confidence: &domain.Confidence{Score: 0.25}}

	first := Compose(a)
	first.RecommendedActions[0] = "mutated"
	second := Compose(a)
	third := Compose(a)

	if second.RecommendedActions[0] == "mutated" {
		t.Fatal("Compose shares its action table with callers")
	}
	if !reflect.DeepEqual(second, third) {
		t.Fatalf("Compose not deterministic\n%+v\n%+v", second, third)
	}
}

func TestDepartmentsFollowCategoryOrder(t *testing.T) {
	got := Departments()
	if len(got) != len(domain.Categories) || got[0] != "Waste Management" || got[len(got)-1] != "General Services" {
		t.Fatalf("Departments() = %v", got)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   *domain.Confidence
		want domain.Confidence
	}{
		{"nil", nil, domain.Confidence{Level: domain.ConfidenceLow, Score: 0.3}},
		{"level high", &domain.Confidence{Level: "HIGH"}, domain.Confidence{Level: domain.ConfidenceHigh, Score: 0.9}},
		{"level medium", &domain.Confidence{Level: domain.ConfidenceMedium}, domain.Confidence{Level: domain.ConfidenceMedium, Score: 0.6}},
		{"score zero", &domain.Confidence{Score: 0}, domain.Confidence{Level: domain.ConfidenceLow, Score: 0}},
		{"score medium", &domain.Confidence{Score: 0.2}, domain.Confidence{Level: domain.ConfidenceMedium, Score: 0.2}},
		{"score high", &domain.Confidence{Score: 0.75}, domain.Confidence{Level: domain.ConfidenceHigh, Score: 0.75}},
		{"score clamped", &domain.Confidence{Score: 3}, domain.Confidence{Level: domain.ConfidenceHigh, Score: 1}},
		{"negative clamped", &domain.Confidence{Score: -1}, domain.Confidence{Level: domain.ConfidenceLow, Score: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeConfidence(tt.in); got != tt.want {
				t.Fatalf("NormalizeConfidence = %+v, want %+v", got, tt.want)
			}
		})
	}
}
