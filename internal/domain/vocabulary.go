// vocabulary.go - Keyword dictionaries shared by the rule-based classifier

package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary maps categories and severities to lowercase keyword phrases.
// A Vocabulary is read-only after construction and safe for concurrent use.
type Vocabulary struct {
	categories map[Category][]string
	severities map[Severity][]string
}

var defaultCategoryKeywords = map[Category][]string{
	CategoryGarbage: {
		"garbage", "trash", "waste", "litter", "rubbish", "dump", "bin",
		"cleanup", "sanitation", "hygiene", "smell", "odor", "overflow", "collection",
	},
	CategoryRoad: {
		"road", "street", "pothole", "pavement", "asphalt", "crack", "damage",
		"repair", "construction", "maintenance", "surface", "bump", "hole",
	},
	CategoryStreetlight: {
		"streetlight", "street light", "lamp", "lamp post", "lighting", "dark",
		"broken light", "flickering", "outage", "bulb", "electricity", "pole",
	},
	CategoryWater: {
		"water", "sewage", "drain", "pipe", "leak", "flood", "overflow",
		"blockage", "clogged", "backup", "smell", "contamination",
	},
	CategoryNoise: {
		"noise", "loud", "sound", "disturbance", "construction", "traffic",
		"music", "party", "machinery", "drilling", "hammering",
	},
	CategoryTraffic: {
		"traffic", "congestion", "signal", "stop light", "crossing", "speed",
		"parking", "vehicle", "accident", "jam", "flow",
	},
}

var defaultSeverityKeywords = map[Severity][]string{
	SeverityHigh: {
		"emergency", "dangerous", "urgent", "critical", "broken",
		"damage", "accident", "injury", "fire", "flood",
	},
	SeverityMedium: {
		"problem", "issue", "concern", "annoying", "inconvenient", "blocked", "overflow",
	},
}

// DefaultVocabulary returns the built-in keyword dictionaries.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		categories: make(map[Category][]string, len(defaultCategoryKeywords)),
		severities: make(map[Severity][]string, len(defaultSeverityKeywords)),
	}
	for c, kws := range defaultCategoryKeywords {
		v.categories[c] = append([]string(nil), kws...)
	}
	for s, kws := range defaultSeverityKeywords {
		v.severities[s] = append([]string(nil), kws...)
	}
	return v
}

// vocabularyFile is the on-disk override format:
//
//	categories:
//	  garbage: [garbage, trash, skip]
//	severity:
//	  high: [emergency, collapse]
type vocabularyFile struct {
	Categories map[string][]string `yaml:"categories"`
	Severity   map[string][]string `yaml:"severity"`
}

// LoadVocabulary reads keyword overrides from a YAML file on top of the defaults.
// Lists named in the file replace the built-in list for that key; other keys keep their defaults.
// An empty path returns the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	v := DefaultVocabulary()
	if path == "" {
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return v.withOverrides(data)
}

// ParseVocabulary applies YAML overrides from data on top of the defaults.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	return DefaultVocabulary().withOverrides(data)
}

func (v *Vocabulary) withOverrides(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	for name, kws := range file.Categories {
		c, ok := ParseCategory(name)
		if !ok || c == CategoryOther {
			return nil, fmt.Errorf("vocabulary: unknown category %q", name)
		}
		cleaned := normalizeKeywords(kws)
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("vocabulary: category %q has no keywords", name)
		}
		v.categories[c] = cleaned
	}

	for name, kws := range file.Severity {
		s, ok := ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("vocabulary: unknown severity %q", name)
		}
		v.severities[s] = normalizeKeywords(kws)
	}

	return v, nil
}

func normalizeKeywords(kws []string) []string {
	seen := make(map[string]bool, len(kws))
	out := make([]string, 0, len(kws))
	for _, kw := range kws {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// Keywords returns the keyword list of a category. Callers must not modify it.
func (v *Vocabulary) Keywords(c Category) []string {
	return v.categories[c]
}

// SeverityKeywords returns the keyword list signalling a severity. Callers must not modify it.
func (v *Vocabulary) SeverityKeywords(s Severity) []string {
	return v.severities[s]
}
