package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"gopkg.in/yaml.v3"
)

// Report is what the CLI prints for one analysis.
type Report struct {
	RequestID    string                `json:"request_id" yaml:"request_id"`
	Provider     string                `json:"provider" yaml:"provider"`
	Path         []string              `json:"path" yaml:"path"`
	PrimaryError string                `json:"primary_error,omitempty" yaml:"primary_error,omitempty"`
	DurationMs   int64                 `json:"duration_ms" yaml:"duration_ms"`
	Result       domain.AnalysisResult `json:"result" yaml:"result"`
}

// DisplayResults formats and writes the report to w
func DisplayResults(w io.Writer, report Report, format string) error {
	switch format {
	case "json":
		return displayJSON(w, report)
	case "yaml":
		return displayYAML(w, report)
	case "human", "":
		displayHuman(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (human, json, yaml)", format)
	}
}

func displayJSON(w io.Writer, report Report) error {
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, report Report) error {
	output, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(output))
	return nil
}

func displayHuman(w io.Writer, report Report) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	r := report.Result

	fmt.Fprintln(w)
	cyan.Fprintf(w, "📂 CATEGORY: %s (%s)\n", r.Category.DisplayName(), r.Category)
	getSeverityColor(string(r.Severity)).Fprintf(w, "📊 SEVERITY: %s %s\n", getSeverityIcon(string(r.Severity)), strings.ToUpper(string(r.Severity)))
	getSeverityColor(string(r.Priority)).Fprintf(w, "🚦 PRIORITY: %s\n", strings.ToUpper(string(r.Priority)))
	fmt.Fprintf(w, "⏳ ESTIMATED RESOLUTION: %s\n", r.ResolutionEstimate)
	fmt.Fprintf(w, "🏢 DEPARTMENT: %s\n\n", r.AssignedDepartment)

	green.Fprintln(w, "🚀 RECOMMENDED ACTIONS:")
	for i, action := range r.RecommendedActions {
		fmt.Fprintf(w, "   %d. %s\n", i+1, action)
	}
	fmt.Fprintln(w)

	if r.SafetyConcerns != "" {
		yellow.Fprintln(w, "⚠️  SAFETY:")
		fmt.Fprintf(w, "   %s\n\n", r.SafetyConcerns)
	}

	fmt.Fprintf(w, "🎯 CONFIDENCE: %s (%.0f%%) | SOURCE: %s\n", r.Confidence.Level, r.Confidence.Score*100, sourceLabel(r.Source))
	if r.Notes != "" {
		fmt.Fprintf(w, "📝 NOTES: %s\n", r.Notes)
	}

	// Footer
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("request %s | provider %s | %s | %dms",
		report.RequestID, report.Provider, strings.Join(report.Path, " → "), report.DurationMs))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func sourceLabel(s domain.Source) string {
	if s == domain.SourceAI {
		return "AI model"
	}
	return "keyword fallback"
}

func getSeverityColor(severity string) *color.Color {
	switch strings.ToLower(severity) {
	case "high":
		return color.New(color.FgRed, color.Bold)
	case "medium":
		return color.New(color.FgYellow)
	case "low":
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func getSeverityIcon(severity string) string {
	switch strings.ToLower(severity) {
	case "high":
		return "🔴"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	default:
		return "⚪"
	}
}
