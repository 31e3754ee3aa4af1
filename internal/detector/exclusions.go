package detector

import (
	"regexp"
	"strings"
)

// exclusionRules drop transactions whose merchant is bank plumbing rather
// than a purchase: interest postings, card and bill payments, transfers,
// fees, ATM and cash activity. These recur on perfect schedules and would
// otherwise surface as high-confidence subscriptions.
var exclusionRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\binterest\b`),
	regexp.MustCompile(`(?i)\b(credit\s*card|card|bill)\s*(pmt|payment)\b`),
	regexp.MustCompile(`(?i)\bpayment\s+(received|thank\s*you)\b`),
	regexp.MustCompile(`(?i)\bautopay\b`),
	regexp.MustCompile(`(?i)\b(wire\s+)?transfer\b`),
	regexp.MustCompile(`(?i)\bzelle\b|\bvenmo\b|\bcash\s*app\b`),
	regexp.MustCompile(`(?i)\b(overdraft|maintenance|service|annual|late|nsf)\s+fee\b`),
	regexp.MustCompile(`(?i)\bfee\s+(charged|assessed)\b`),
	regexp.MustCompile(`(?i)\batm\b`),
	regexp.MustCompile(`(?i)\bcash\s+(withdrawal|deposit|advance)\b`),
	regexp.MustCompile(`(?i)\bdirect\s+dep(osit)?\b`),
}

func isExcluded(merchant string) bool {
	for _, re := range exclusionRules {
		if re.MatchString(merchant) {
			return true
		}
	}
	return false
}

// categoryKeywords is the fallback category guess when no catalog entry
// matches a detected merchant.
var categoryKeywords = []struct {
	Category string
	Keywords []string
}{
	{Category: "streaming", Keywords: []string{"netflix", "hulu", "disney", "hbo", "paramount", "peacock", "youtube", "twitch", "crunchyroll"}},
	{Category: "music", Keywords: []string{"spotify", "tidal", "pandora", "soundcloud", "deezer"}},
	{Category: "software", Keywords: []string{"adobe", "microsoft", "github", "notion", "figma", "slack", "zoom", "openai", "chatgpt"}},
	{Category: "cloud", Keywords: []string{"icloud", "dropbox", "google one", "onedrive", "backblaze"}},
	{Category: "fitness", Keywords: []string{"gym", "fitness", "peloton", "strava", "crossfit", "yoga"}},
	{Category: "news", Keywords: []string{"times", "post", "journal", "economist", "medium", "substack"}},
	{Category: "gaming", Keywords: []string{"playstation", "xbox", "nintendo", "steam", "epic games"}},
	{Category: "food", Keywords: []string{"dashpass", "uber one", "grubhub", "hellofresh", "blue apron"}},
}

func guessCategory(merchant string) string {
	lower := strings.ToLower(merchant)
	for _, group := range categoryKeywords {
		for _, kw := range group.Keywords {
			if strings.Contains(lower, kw) {
				return group.Category
			}
		}
	}
	return "other"
}
