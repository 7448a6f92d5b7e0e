package ai

import (
	"errors"
	"testing"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

const validReply = `{
  "category": "road",
  "severity": "high",
  "priority": "high",
  "estimated_resolution_time": "1-2 days",
  "assigned_department": "Public Works",
  "recommended_actions": ["Inspect road damage", "Install temporary warning signs"],
  "safety_concerns": "Deep pothole in a cycle lane",
  "confidence": "high",
  "ai_insights": "Pothole roughly 40cm wide"
}`

func TestParseResponseValid(t *testing.T) {
	a, err := ParseResponse(validReply)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if a.Category != domain.CategoryRoad || a.Severity != domain.SeverityHigh || a.Priority != domain.PriorityHigh {
		t.Fatalf("enums = %s/%s/%s", a.Category, a.Severity, a.Priority)
	}
	if a.Resolution != domain.ResolutionDays || a.Department != "Public Works" {
		t.Fatalf("resolution/department = %q/%q", a.Resolution, a.Department)
	}
	if len(a.Actions) != 2 || a.Confidence == nil || a.Confidence.Level != domain.ConfidenceHigh {
		t.Fatalf("actions/confidence = %v/%+v", a.Actions, a.Confidence)
	}
	if a.Source != domain.SourceAI || a.Insights != "Pothole roughly 40cm wide" {
		t.Fatalf("source/insights = %s/%q", a.Source, a.Insights)
	}
}

func TestParseResponseExtractsFromProseAndFences(t *testing.T) {
	inputs := map[string]string{
		"prose":        "Sure! Here is the analysis {as requested}:\n" + validReply + "\nLet me know if you need more.",
		"code fence":   "```json\n" + validReply + "\n```",
		"two objects":  validReply + "\n" + `{"category": "noise"}`,
		"leading junk": "{{{ " + validReply,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			a, err := ParseResponse(in)
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if a.Category != domain.CategoryRoad {
				t.Fatalf("category = %s, want road", a.Category)
			}
		})
	}
}

func TestParseResponseRepairsLiteralNewlines(t *testing.T) {
	in := "{\"category\": \"water\", \"severity\": \"medium\", \"priority\": \"high\", \"ai_insights\": \"line one\nline two\"}"
	a, err := ParseResponse(in)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if a.Insights != "line one\nline two" {
		t.Fatalf("insights = %q", a.Insights)
	}
}

func TestParseResponseNormalizesCase(t *testing.T) {
	a, err := ParseResponse(`{"category": " Garbage ", "severity": "MEDIUM", "priority": "Low", "confidence": "Medium", "estimated_resolution_time": "1 WEEK"}`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if a.Category != domain.CategoryGarbage || a.Severity != domain.SeverityMedium || a.Priority != domain.PriorityLow {
		t.Fatalf("enums = %s/%s/%s", a.Category, a.Severity, a.Priority)
	}
	if a.Resolution != domain.ResolutionWeek || a.Confidence.Level != domain.ConfidenceMedium {
		t.Fatalf("resolution/confidence = %s/%s", a.Resolution, a.Confidence.Level)
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  domain.ValidationKind
		field string
	}{
		{"empty", "", domain.MalformedOutput, ""},
		{"prose only", "I cannot help with that.", domain.MalformedOutput, ""},
		{"truncated", `{"category": "road", "severity": "hi`, domain.MalformedOutput, ""},
		{"array", `["road", "high"]`, domain.MalformedOutput, ""},
		{"missing severity", `{"category": "road", "priority": "high"}`, domain.MissingField, "severity"},
		{"null category", `{"category": null, "severity": "low", "priority": "low"}`, domain.MissingField, "category"},
		{"blank priority", `{"category": "road", "severity": "low", "priority": "  "}`, domain.MissingField, "priority"},
		{"severe", `{"category": "road", "severity": "SEVERE", "priority": "high"}`, domain.UnknownEnumValue, "severity"},
		{"synonym category", `{"category": "roads", "severity": "low", "priority": "high"}`, domain.UnknownEnumValue, "category"},
		{"bad bucket", `{"category": "road", "severity": "low", "priority": "high", "estimated_resolution_time": "1-2 weeks"}`, domain.UnknownEnumValue, "estimated_resolution_time"},
		{"bad confidence", `{"category": "road", "severity": "low", "priority": "high", "confidence": "very high"}`, domain.UnknownEnumValue, "confidence"},
		{"numeric severity", `{"category": "road", "severity": 3, "priority": "high"}`, domain.MalformedOutput, "severity"},
		{"actions as string", `{"category": "road", "severity": "low", "priority": "high", "recommended_actions": "fix it"}`, domain.MalformedOutput, "recommended_actions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw)
			var valErr *domain.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if valErr.Kind != tt.kind || valErr.Field != tt.field {
				t.Fatalf("got kind=%s field=%q, want kind=%s field=%q", valErr.Kind, valErr.Field, tt.kind, tt.field)
			}
		})
	}
}

func TestParseResponseClampsActions(t *testing.T) {
	a, err := ParseResponse(`{"category": "garbage", "severity": "low", "priority": "low",
		"recommended_actions": ["1", " ", "2", "3", "4", "5", "6", "7", "8"]}`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(a.Actions) != domain.MaxRecommendedActions || a.Actions[1] != "2" {
		t.Fatalf("actions = %v", a.Actions)
	}
}

func TestParseResponseOptionalFieldsMayBeAbsent(t *testing.T) {
	a, err := ParseResponse(`{"category": "other", "severity": "low", "priority": "medium"}`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if a.Resolution != "" || a.Department != "" || a.Actions != nil || a.Confidence != nil {
		t.Fatalf("optional fields should be empty: %+v", a)
	}
}

func TestFixJSONEscaping(t *testing.T) {
	in := "{\"a\": \"x\ty\"}"
	if got := fixJSONEscaping(in); got != `{"a": "x\ty"}` {
		t.Fatalf("fixJSONEscaping = %q", got)
	}
}
