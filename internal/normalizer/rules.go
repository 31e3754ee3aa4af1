package normalizer

import (
	"regexp"
	"strings"
)

// The cleanup pipeline is driven by ordered rule tables rather than inline
// literals, so precedence is explicit and each table is testable on its own.

// processorPrefixes match payment-processor tokens that precede the real
// merchant name on card-network statements. Anchored at the start,
// case-insensitive, evaluated in order; the first hit is stripped.
var processorPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^paypal\s*\*`),
	regexp.MustCompile(`(?i)^pp\s*\*`),
	regexp.MustCompile(`(?i)^sq\s*\*`),
	regexp.MustCompile(`(?i)^squ\s*\*`),
	regexp.MustCompile(`(?i)^tst\s*\*`),
	regexp.MustCompile(`(?i)^sp\s+`),
	regexp.MustCompile(`(?i)^py\s*\*`),
	regexp.MustCompile(`(?i)^ic\s*\*`),
	regexp.MustCompile(`(?i)^gpay\s*\*?`),
	regexp.MustCompile(`(?i)^google\s*\*`),
	regexp.MustCompile(`(?i)^apl\s*\*`),
	regexp.MustCompile(`(?i)^amzn\s+mktp\s+`),
	regexp.MustCompile(`(?i)^pos\s+(debit|purchase)\s+`),
	regexp.MustCompile(`(?i)^(debit|credit)\s+card\s+purchase\s+`),
	regexp.MustCompile(`(?i)^recurring\s+payment\s+`),
}

// noiseRule removes an incidental token and replaces it with a space so
// surrounding words do not fuse.
type noiseRule struct {
	pattern *regexp.Regexp
}

// noiseRules strip statement noise: separator asterisks, parenthetical and
// bracketed store/location codes, and #-prefixed numeric codes.
var noiseRules = []noiseRule{
	{regexp.MustCompile(`\*+`)},
	{regexp.MustCompile(`\([^)]*\)`)},
	{regexp.MustCompile(`\[[^\]]*\]`)},
	{regexp.MustCompile(`#\d+`)},
}

// locationRules strip store/location indicators: "store 12345"-style
// counters, street-address fragments, trailing state+ZIP pairs. These run
// before the bare digit rules so the digits still anchor the match.
var locationRules = []noiseRule{
	{regexp.MustCompile(`(?i)\b(store|location|branch|shop)\s*#?\s*\d+\b`)},
	{regexp.MustCompile(`(?i)\b\d+\s+(n|s|e|w|north|south|east|west)?\s*\w+\s+(st|ave|blvd|rd|dr|ln|hwy|pkwy)\b\.?`)},
	{regexp.MustCompile(`(?i)\b[a-z]{2}\s+\d{5}(-\d{4})?\s*$`)},
}

// digitRules remove what is left over: long digit runs (likely transaction
// or store IDs) and standalone 5-digit numbers.
var digitRules = []noiseRule{
	{regexp.MustCompile(`\d{4,}`)},
	{regexp.MustCompile(`\b\d{5}\b`)},
}

// wordReplacement is a whole-word substitution applied after noise removal:
// corporate suffixes are deleted, a small symbol map is spelled out.
type wordReplacement struct {
	From string
	To   string
}

var wordReplacements = []wordReplacement{
	{From: "&", To: "and"},
	{From: "@", To: "at"},
	{From: "inc", To: ""},
	{From: "llc", To: ""},
	{From: "ltd", To: ""},
	{From: "corp", To: ""},
	{From: "corporation", To: ""},
	{From: "company", To: ""},
	{From: "co", To: ""},
}

// compiledReplacements is built once at init. Entries that are empty,
// whitespace, or pure regex metacharacters are skipped so a bad table entry
// can never produce an invalid pattern.
var compiledReplacements = compileReplacements(wordReplacements)

type compiledReplacement struct {
	re *regexp.Regexp
	to string
}

func compileReplacements(table []wordReplacement) []compiledReplacement {
	out := make([]compiledReplacement, 0, len(table))
	for _, r := range table {
		from := strings.TrimSpace(r.From)
		if from == "" {
			continue
		}
		quoted := regexp.QuoteMeta(from)
		var expr string
		if isWordLike(from) {
			expr = `(?i)\b` + quoted + `\b\.?`
		} else {
			// Symbols have no word boundary; match them bare.
			expr = quoted
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		to := r.To
		if to != "" {
			to = " " + to + " "
		} else {
			to = " "
		}
		out = append(out, compiledReplacement{re: re, to: to})
	}
	return out
}

func isWordLike(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}
