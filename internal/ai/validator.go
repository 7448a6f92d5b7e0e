// validator.go - Strict parsing of the model's raw reply into an Assessment

package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

var jsonStringRe = regexp.MustCompile(`"([^"]*(?:\\.[^"]*)*)"`)

// fixJSONEscaping escapes raw control characters inside JSON string values.
// Models sometimes emit literal newlines inside strings, which encoding/json rejects.
func fixJSONEscaping(jsonStr string) string {
	return jsonStringRe.ReplaceAllStringFunc(jsonStr, func(match string) string {
		if len(match) < 2 {
			return match
		}
		content := match[1 : len(match)-1]

		// Backslash followed by space is not a valid escape
		content = strings.ReplaceAll(content, "\\ ", "\\\\ ")

		var builder strings.Builder
		for _, ch := range content {
			switch ch {
			case '\n':
				builder.WriteString(`\n`)
			case '\r':
				builder.WriteString(`\r`)
			case '\t':
				builder.WriteString(`\t`)
			case '\f':
				builder.WriteString(`\f`)
			case '\b':
				builder.WriteString(`\b`)
			default:
				if ch < 0x20 {
					builder.WriteString(fmt.Sprintf("\\u%04x", ch))
				} else {
					builder.WriteRune(ch)
				}
			}
		}
		return `"` + builder.String() + `"`
	})
}

// extractFirstObject returns the first position in text where a complete JSON object decodes.
// Prose and code fences around the object are ignored.
func extractFirstObject(text string) (map[string]json.RawMessage, bool) {
	for i := strings.IndexByte(text, '{'); i >= 0; {
		var obj map[string]json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&obj); err == nil && obj != nil {
			return obj, true
		}
		next := strings.IndexByte(text[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, false
}

// ParseResponse validates raw model output and returns a typed Assessment.
// category, severity and priority are required; every enumerated field must match its
// vocabulary case-insensitively; other fields are optional and left empty when absent.
// recommended_actions is trimmed and clamped to MaxRecommendedActions.
func ParseResponse(raw string) (domain.Assessment, error) {
	obj, ok := extractFirstObject(raw)
	if !ok {
		obj, ok = extractFirstObject(fixJSONEscaping(raw))
	}
	if !ok {
		return domain.Assessment{}, &domain.ValidationError{
			Kind:    domain.MalformedOutput,
			Message: "no JSON object found in response",
		}
	}

	r := fieldReader{obj: obj}
	a := domain.Assessment{Source: domain.SourceAI}

	a.Category = requiredEnum(&r, keyCategory, domain.ParseCategory)
	a.Severity = requiredEnum(&r, keySeverity, domain.ParseSeverity)
	a.Priority = requiredEnum(&r, keyPriority, domain.ParsePriority)
	a.Resolution = optionalEnum(&r, keyResolution, domain.ParseResolution)
	if level := optionalEnum(&r, keyConfidence, domain.ParseConfidenceLevel); level != "" {
		a.Confidence = &domain.Confidence{Level: level}
	}

	a.Department = r.optionalString(keyDepartment)
	a.SafetyConcerns = r.optionalString(keySafetyConcerns)
	a.Insights = r.optionalString(keyInsights)
	a.Actions = r.actions(keyActions)

	if r.err != nil {
		return domain.Assessment{}, r.err
	}
	return a, nil
}

// fieldReader decodes fields one at a time and keeps the first error.
type fieldReader struct {
	obj map[string]json.RawMessage
	err error
}

func (r *fieldReader) fail(err *domain.ValidationError) {
	if r.err == nil {
		r.err = err
	}
}

// stringField returns the trimmed value of key and whether it was present and non-empty.
func (r *fieldReader) stringField(key string) (string, bool) {
	raw, ok := r.obj[key]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.fail(&domain.ValidationError{Kind: domain.MalformedOutput, Field: key, Message: "expected a string"})
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (r *fieldReader) optionalString(key string) string {
	s, _ := r.stringField(key)
	return s
}

func (r *fieldReader) actions(key string) []string {
	raw, ok := r.obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		r.fail(&domain.ValidationError{Kind: domain.MalformedOutput, Field: key, Message: "expected an array of strings"})
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == domain.MaxRecommendedActions {
			break
		}
	}
	return out
}

func requiredEnum[T ~string](r *fieldReader, key string, parse func(string) (T, bool)) T {
	s, present := r.stringField(key)
	if !present {
		r.fail(&domain.ValidationError{Kind: domain.MissingField, Field: key})
		var zero T
		return zero
	}
	v, ok := parse(s)
	if !ok {
		r.fail(&domain.ValidationError{Kind: domain.UnknownEnumValue, Field: key, Value: s})
	}
	return v
}

func optionalEnum[T ~string](r *fieldReader, key string, parse func(string) (T, bool)) T {
	s, present := r.stringField(key)
	if !present {
		var zero T
		return zero
	}
	v, ok := parse(s)
	if !ok {
		r.fail(&domain.ValidationError{Kind: domain.UnknownEnumValue, Field: key, Value: s})
	}
	return v
}
