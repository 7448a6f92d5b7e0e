// prompts.go - Prompt for the complaint analysis model call

package ai

import (
	"fmt"
	"strings"

	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/processor"
)

// Response keys the model must emit. ParseResponse reads exactly these.
const (
	keyCategory       = "category"
	keySeverity       = "severity"
	keyPriority       = "priority"
	keyResolution     = "estimated_resolution_time"
	keyDepartment     = "assigned_department"
	keyActions        = "recommended_actions"
	keySafetyConcerns = "safety_concerns"
	keyConfidence     = "confidence"
	keyInsights       = "ai_insights"
)

func joinTokens[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}

// BuildComplaintPrompt embeds the complaint and the fixed output schema in one prompt.
func BuildComplaintPrompt(title, description string, hasImage bool) string {
	var b strings.Builder

	if hasImage {
		b.WriteString("Analyze this image as a civic complaint submission for a city government system.\n\n")
	} else {
		b.WriteString("Analyze this civic complaint submission for a city government system.\n\n")
	}

	b.WriteString("Complaint Details:\n")
	fmt.Fprintf(&b, "- Title: %s\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "- Description: %s\n\n", strings.TrimSpace(description))

	b.WriteString("Respond with a single JSON object and nothing else, using exactly these keys:\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  %q: %q,\n", keyCategory, joinTokens(domain.Categories))
	fmt.Fprintf(&b, "  %q: %q,\n", keySeverity, joinTokens(domain.Severities))
	fmt.Fprintf(&b, "  %q: %q,\n", keyPriority, joinTokens(domain.Priorities))
	fmt.Fprintf(&b, "  %q: %q,\n", keyResolution, joinTokens(domain.ResolutionEstimates))
	fmt.Fprintf(&b, "  %q: %q,\n", keyDepartment, strings.Join(processor.Departments(), "|"))
	fmt.Fprintf(&b, "  %q: [\"Action 1\", \"Action 2\", \"Action 3\", \"Action 4\"],\n", keyActions)
	fmt.Fprintf(&b, "  %q: \"Any immediate safety risks or concerns\",\n", keySafetyConcerns)
	fmt.Fprintf(&b, "  %q: %q,\n", keyConfidence, joinTokens(domain.ConfidenceLevels))
	fmt.Fprintf(&b, "  %q: \"Additional insights about the issue\"\n", keyInsights)
	b.WriteString("}\n\n")

	b.WriteString("IMPORTANT: Use the exact lowercase values listed above for category, severity, priority, ")
	b.WriteString("estimated_resolution_time and confidence. Do not invent new values.\n")
	fmt.Fprintf(&b, "Give between 1 and %d recommended actions.\n\n", domain.MaxRecommendedActions)

	b.WriteString("Focus on:\n")
	b.WriteString("1. Identifying the exact nature of the problem\n")
	b.WriteString("2. Assessing safety risks and urgency\n")
	b.WriteString("3. Providing actionable recommendations for city officials\n")
	b.WriteString("4. Estimating realistic resolution timelines\n")
	b.WriteString("5. Suggesting the appropriate department to handle the issue\n")

	return b.String()
}
