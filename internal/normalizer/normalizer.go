// Package normalizer turns raw statement descriptions into canonical
// merchant keys. Normalize is pure and total: it never fails, performs no
// I/O, and the same input always yields the same output.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	edgeNonWord   = regexp.MustCompile(`^\W+|\W+$`)
)

// Normalize cleans a raw merchant description into a lowercase merchant key.
// Empty or whitespace-only input yields "". When cleanup strips a string to
// fewer than 2 characters, the lowercased trimmed original is returned
// instead, so real input never degenerates to an empty key.
func Normalize(raw string) (result string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	fallback := strings.ToLower(trimmed)
	defer func() {
		if recover() != nil {
			result = fallback
		}
	}()

	s := trimmed
	for _, re := range processorPrefixes {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] == 0 {
			s = s[loc[1]:]
			break
		}
	}

	for _, rule := range noiseRules {
		s = rule.pattern.ReplaceAllString(s, " ")
	}

	for _, rep := range compiledReplacements {
		s = rep.re.ReplaceAllString(s, rep.to)
	}

	for _, rule := range locationRules {
		s = rule.pattern.ReplaceAllString(s, " ")
	}

	for _, rule := range digitRules {
		s = rule.pattern.ReplaceAllString(s, " ")
	}

	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(s))
	s = edgeNonWord.ReplaceAllString(s, "")

	if len(s) < 2 {
		return fallback
	}
	return s
}
