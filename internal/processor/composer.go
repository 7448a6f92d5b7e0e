// composer.go - Fills derived fields of an assessment from static category tables

package processor

import (
	"fmt"
	"strings"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

// categoryProfile holds the static defaults for one category.
type categoryProfile struct {
	Severity      domain.Severity
	PriorityFloor domain.Priority
	Department    string
	Actions       []string
}

var categoryProfiles = map[domain.Category]categoryProfile{
	domain.CategoryGarbage: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityMedium,
		Department:    "Waste Management",
		Actions: []string{
			"Schedule immediate cleanup",
			"Install additional bins if needed",
			"Increase collection frequency",
			"Investigate source of waste",
		},
	},
	domain.CategoryRoad: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityHigh,
		Department:    "Public Works",
		Actions: []string{
			"Inspect road damage",
			"Schedule repair work",
			"Install temporary warning signs",
			"Assess structural integrity",
		},
	},
	domain.CategoryStreetlight: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityMedium,
		Department:    "Electrical Services",
		Actions: []string{
			"Check electrical connections",
			"Replace faulty bulbs",
			"Update lighting infrastructure",
			"Test automatic controls",
		},
	},
	domain.CategoryWater: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityHigh,
		Department:    "Water Services",
		Actions: []string{
			"Inspect water lines",
			"Contact emergency services if severe",
			"Schedule repair work",
			"Monitor water quality",
		},
	},
	domain.CategoryNoise: {
		Severity:      domain.SeverityLow,
		PriorityFloor: domain.PriorityLow,
		Department:    "Code Enforcement",
		Actions: []string{
			"Investigate noise source",
			"Issue warnings if applicable",
			"Monitor noise levels",
			"Coordinate with local authorities",
		},
	},
	domain.CategoryTraffic: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityMedium,
		Department:    "Traffic Management",
		Actions: []string{
			"Analyze traffic patterns",
			"Adjust signal timings",
			"Implement traffic management",
			"Coordinate with police department",
		},
	},
	domain.CategoryOther: {
		Severity:      domain.SeverityMedium,
		PriorityFloor: domain.PriorityMedium,
		Department:    "General Services",
		Actions: []string{
			"Review complaint details",
			"Assign appropriate department",
			"Follow up with citizen",
			"Document for future reference",
		},
	},
}

var resolutionBySeverity = map[domain.Severity]domain.ResolutionEstimate{
	domain.SeverityLow:    domain.ResolutionMonthOut,
	domain.SeverityMedium: domain.ResolutionWeek,
	domain.SeverityHigh:   domain.ResolutionDays,
}

var priorityBySeverity = map[domain.Severity]domain.Priority{
	domain.SeverityLow:    domain.PriorityLow,
	domain.SeverityMedium: domain.PriorityMedium,
	domain.SeverityHigh:   domain.PriorityHigh,
}

// Safety note reported when the category came from keyword matching.
const ruleBasedSafetyNote = "Standard safety protocols apply"

// Departments lists the routing targets known to the engine, in table order.
func Departments() []string {
	out := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, categoryProfiles[c].Department)
	}
	return out
}

// Compose turns a partial assessment into a fully populated AnalysisResult.
// Fields the analyzer provided are kept as-is; only missing fields are derived:
// severity from the category table (raised by the keyword hint, never lowered),
// priority as the higher of the severity mapping and the category floor,
// resolution from severity, then department and actions from the category table.
// Compose is pure and deterministic.
func Compose(a domain.Assessment) domain.AnalysisResult {
	category := a.Category
	if _, ok := categoryProfiles[category]; !ok {
		category = domain.CategoryOther
	}
	profile := categoryProfiles[category]

	source := a.Source
	if source != domain.SourceAI {
		source = domain.SourceRuleBased
	}

	severity, ok := domain.ParseSeverity(string(a.Severity))
	if !ok {
		severity = profile.Severity
		if a.SeverityHint.Rank() > severity.Rank() {
			severity = a.SeverityHint
		}
	}

	priority, ok := domain.ParsePriority(string(a.Priority))
	if !ok {
		priority = priorityBySeverity[severity]
		if profile.PriorityFloor.Rank() > priority.Rank() {
			priority = profile.PriorityFloor
		}
	}

	resolution, ok := domain.ParseResolution(string(a.Resolution))
	if !ok {
		resolution = resolutionBySeverity[severity]
	}

	department := strings.TrimSpace(a.Department)
	if department == "" {
		department = profile.Department
	}

	actions := cleanActions(a.Actions)
	if len(actions) == 0 {
		actions = append([]string(nil), profile.Actions...)
	}

	confidence := NormalizeConfidence(a.Confidence)

	safety := strings.TrimSpace(a.SafetyConcerns)
	notes := strings.TrimSpace(a.Insights)
	if source == domain.SourceRuleBased {
		if safety == "" {
			safety = ruleBasedSafetyNote
		}
		if notes == "" {
			notes = fmt.Sprintf("Classified using keyword matching with %.1f%% confidence", confidence.Score*100)
		}
	}

	return domain.AnalysisResult{
		Category:           category,
		Severity:           severity,
		Priority:           priority,
		ResolutionEstimate: resolution,
		AssignedDepartment: department,
		RecommendedActions: actions,
		SafetyConcerns:     safety,
		Confidence:         confidence,
		Source:             source,
		Notes:              notes,
	}
}

// cleanActions trims entries, drops blanks and keeps at most MaxRecommendedActions.
func cleanActions(actions []string) []string {
	out := make([]string, 0, len(actions))
	for _, action := range actions {
		action = strings.TrimSpace(action)
		if action == "" {
			continue
		}
		out = append(out, action)
		if len(out) == domain.MaxRecommendedActions {
			break
		}
	}
	return out
}
