package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestParseEnumsIgnoreCaseAndSpace(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
		ok   bool
	}{
		{"high", SeverityHigh, true},
		{"HIGH", SeverityHigh, true},
		{"  Medium ", SeverityMedium, true},
		{"SEVERE", "", false},
		{"med", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseSeverity(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ParseSeverity(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	if got, ok := ParseResolution("1+ Months"); !ok || got != ResolutionMonthOut {
		t.Fatalf("ParseResolution = (%q, %v)", got, ok)
	}
	if _, ok := ParseResolution("soon"); ok {
		t.Fatal("expected unknown bucket to be rejected")
	}
}

func TestCategoriesDeclarationOrder(t *testing.T) {
	if Categories[0] != CategoryGarbage || Categories[len(Categories)-1] != CategoryOther {
		t.Fatalf("unexpected category order: %v", Categories)
	}
}

func TestAnalysisResultValidate(t *testing.T) {
	valid := AnalysisResult{
		Category:           CategoryRoad,
		Severity:           SeverityMedium,
		Priority:           PriorityHigh,
		ResolutionEstimate: ResolutionWeek,
		AssignedDepartment: "Public Works",
		RecommendedActions: []string{"Inspect road damage"},
		Confidence:         Confidence{Level: ConfidenceMedium, Score: 0.6},
		Source:             SourceAI,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	tooMany := valid
	tooMany.RecommendedActions = []string{"a", "b", "c", "d", "e", "f", "g"}
	if err := tooMany.Validate(); err == nil {
		t.Fatal("expected 7 actions to be rejected")
	}

	noActions := valid
	noActions.RecommendedActions = nil
	if err := noActions.Validate(); err == nil {
		t.Fatal("expected empty actions to be rejected")
	}

	badSeverity := valid
	badSeverity.Severity = "SEVERE"
	if err := badSeverity.Validate(); err == nil {
		t.Fatal("expected out-of-vocabulary severity to be rejected")
	}
}

func TestErrorsUnwrapThroughWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("analyze: %w", &ExternalServiceError{Kind: ServiceUnavailable, Provider: "gemini", Err: cause})

	if !IsExternalServiceError(err) {
		t.Fatal("expected wrapped ExternalServiceError to be detected")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if IsValidationError(err) {
		t.Fatal("service error misreported as validation error")
	}

	valErr := &ValidationError{Kind: UnknownEnumValue, Field: "severity", Value: "SEVERE"}
	if got := valErr.Error(); got != `unknown_enum_value: field severity has value "SEVERE"` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDefaultVocabularyCoversEveryCategoryButOther(t *testing.T) {
	v := DefaultVocabulary()
	for _, c := range Categories {
		if c == CategoryOther {
			if len(v.Keywords(c)) != 0 {
				t.Fatalf("other should carry no keywords")
			}
			continue
		}
		if len(v.Keywords(c)) == 0 {
			t.Fatalf("category %s has no keywords", c)
		}
	}
	if len(v.Keywords(CategoryGarbage)) != 14 {
		t.Fatalf("garbage keywords = %d, want 14", len(v.Keywords(CategoryGarbage)))
	}
}

func TestDefaultVocabularyIsNotShared(t *testing.T) {
	a := DefaultVocabulary()
	a.Keywords(CategoryRoad)[0] = "mutated"
	b := DefaultVocabulary()
	if b.Keywords(CategoryRoad)[0] != "road" {
		t.Fatalf("default keywords leaked a mutation: %q", b.Keywords(CategoryRoad)[0])
	}
}

func TestLoadVocabularyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := "categories:\n  Garbage: [\" Skip \", trash, trash]\nseverity:\n  high: [collapse]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	got := v.Keywords(CategoryGarbage)
	if len(got) != 2 || got[0] != "skip" || got[1] != "trash" {
		t.Fatalf("garbage keywords = %v", got)
	}
	if len(v.Keywords(CategoryRoad)) == 0 {
		t.Fatal("road keywords should keep defaults")
	}
	if kws := v.SeverityKeywords(SeverityHigh); len(kws) != 1 || kws[0] != "collapse" {
		t.Fatalf("high severity keywords = %v", kws)
	}
}

func TestParseVocabularyRejectsUnknownKeys(t *testing.T) {
	cases := map[string]string{
		"unknown category": "categories:\n  parks: [bench]\n",
		"other category":   "categories:\n  other: [misc]\n",
		"empty list":       "categories:\n  road: [\"  \"]\n",
		"unknown severity": "severity:\n  extreme: [fire]\n",
		"bad yaml":         "categories: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseVocabulary([]byte(content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadVocabularyEmptyPath(t *testing.T) {
	v, err := LoadVocabulary("")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Keywords(CategoryWater)) == 0 {
		t.Fatal("expected defaults")
	}
}
