// confidence_calculator.go - Normalizes analyzer confidence into one reporting shape

package processor

import "github.com/townsquare/complaint_analyzer/internal/domain"

// Scores reported for the qualitative levels the primary analyzer emits.
var levelScores = map[domain.ConfidenceLevel]float64{
	domain.ConfidenceHigh:   0.9,
	domain.ConfidenceMedium: 0.6,
	domain.ConfidenceLow:    0.3,
}

// NormalizeConfidence turns either a qualitative level (primary path) or a numeric
// score (fallback path) into a Confidence carrying both. A nil confidence reports low.
func NormalizeConfidence(c *domain.Confidence) domain.Confidence {
	if c == nil {
		return domain.Confidence{Level: domain.ConfidenceLow, Score: levelScores[domain.ConfidenceLow]}
	}

	if level, ok := domain.ParseConfidenceLevel(string(c.Level)); ok {
		return domain.Confidence{Level: level, Score: levelScores[level]}
	}

	score := clampScore(c.Score)
	return domain.Confidence{Level: determineConfidenceLevel(score), Score: score}
}

// determineConfidenceLevel maps a keyword-match score in [0,1] to a level.
func determineConfidenceLevel(score float64) domain.ConfidenceLevel {
	if score >= 0.5 {
		return domain.ConfidenceHigh // 0.5-1.0
	} else if score >= 0.2 {
		return domain.ConfidenceMedium // 0.2-0.49
	}
	return domain.ConfidenceLow // 0-0.19
}

func clampScore(score float64) float64 {
	if score != score || score < 0 { // NaN or negative
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
