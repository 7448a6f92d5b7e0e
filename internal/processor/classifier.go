// classifier.go - Deterministic keyword classifier used when the model path is unavailable

package processor

import (
	"strings"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

// RuleBasedClassifier scores categories by counting keyword substrings in the complaint text.
// It never fails and never performs I/O.
type RuleBasedClassifier struct {
	vocab *domain.Vocabulary
}

// NewRuleBasedClassifier returns a classifier over vocab (the built-in vocabulary when nil).
func NewRuleBasedClassifier(vocab *domain.Vocabulary) *RuleBasedClassifier {
	if vocab == nil {
		vocab = domain.DefaultVocabulary()
	}
	return &RuleBasedClassifier{vocab: vocab}
}

// Classify returns the best-scoring category and a confidence in [0,1].
// score[c] is the number of c's keywords found in the lower-cased title and description.
// Ties go to the category declared first in domain.Categories; no match at all yields (other, 0).
func (c *RuleBasedClassifier) Classify(title, description string) (domain.Category, float64) {
	text := strings.ToLower(title + " " + description)

	best := domain.CategoryOther
	bestScore := 0
	for _, category := range domain.Categories {
		score := countMatches(text, c.vocab.Keywords(category))
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	if bestScore == 0 {
		return domain.CategoryOther, 0.0
	}

	confidence := float64(bestScore) / float64(len(c.vocab.Keywords(best)))
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best, confidence
}

// AssessSeverity returns high when any high-severity keyword appears,
// medium when any medium-severity keyword appears, and low otherwise.
func (c *RuleBasedClassifier) AssessSeverity(title, description string) domain.Severity {
	text := strings.ToLower(title + " " + description)
	if countMatches(text, c.vocab.SeverityKeywords(domain.SeverityHigh)) > 0 {
		return domain.SeverityHigh
	}
	if countMatches(text, c.vocab.SeverityKeywords(domain.SeverityMedium)) > 0 {
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

// Assess runs both keyword passes and returns a fallback Assessment.
func (c *RuleBasedClassifier) Assess(req domain.AnalysisRequest) domain.Assessment {
	category, score := c.Classify(req.Title, req.Description)
	return domain.Assessment{
		Category:     category,
		Confidence:   &domain.Confidence{Score: score},
		Source:       domain.SourceRuleBased,
		SeverityHint: c.AssessSeverity(req.Title, req.Description),
	}
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
