package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// MaxQueryLength caps the query forwarded to retailer search endpoints.
const MaxQueryLength = 100

// QueryPreprocessor normalizes free-text search queries and turns shopping
// list names into retailer search terms.
type QueryPreprocessor struct {
	log logrus.FieldLogger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "2L", "600 ml", "1.5 kg", "500g"
	sizeQuantityPattern = regexp.MustCompile(`\b\d+\.?\d*\s*(ml|l|litres?|liters?|kg|g|grams?|oz|lbs?)\b`)

	// Matches pack/count patterns like "6 pack", "pack of 6", "12pk", "24 count", "10 x 200g"
	packCountPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*x\b|\b\d+\s*(cans?|bottles?|pieces?)\b`)

	// Matches standalone numbers with no unit at either end (e.g., ", 12", "3 -")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	// Characters that break retailer search endpoints
	breakingCharsPattern = regexp.MustCompile(`[\x00-\x1f\x7f<>{}\[\]\\|^~` + "`" + `"#%?;]`)

	orphanedInnerPunctuation    = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	orphanedTrailingPunctuation = regexp.MustCompile(`[,\-;:]+\s*$`)
	orphanedLeadingPunctuation  = regexp.MustCompile(`^\s*[,\-;:]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// noiseWords are dropped from list names before searching
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "quality": true, "best": true, "special": true,

	// Size descriptors
	"size": true, "large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "big": true,

	// Packaging terms
	"package": true, "box": true, "bag": true, "bottle": true, "can": true,
	"jar": true, "tub": true, "carton": true, "pouch": true, "punnet": true,

	// Generic terms that don't narrow a grocery search
	"item": true, "product": true, "brand": true, "some": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(log logrus.FieldLogger) *QueryPreprocessor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QueryPreprocessor{log: log}
}

// Normalize prepares a user query for every retailer adapter. It trims,
// strips endpoint-breaking characters, collapses whitespace and caps the
// length. A query that is empty afterwards is a validation error on "query".
func (p *QueryPreprocessor) Normalize(query string) (string, error) {
	cleaned := breakingCharsPattern.ReplaceAllString(query, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = truncateAtWord(strings.TrimSpace(cleaned), MaxQueryLength)

	if cleaned == "" {
		return "", domain.NewValidationError("query", "must contain searchable text")
	}
	return cleaned, nil
}

// ListItemQuery turns a shopping-list name such as "Milk, 2L" into a search
// term by removing sizes, pack counts and noise words. When nothing useful
// survives the lowercased original is returned.
func (p *QueryPreprocessor) ListItemQuery(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	lowered := strings.ToLower(name)

	// Step 1: Remove size/quantity patterns
	cleaned := sizeQuantityPattern.ReplaceAllString(lowered, " ")

	// Step 2: Remove pack/count patterns
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Remove standalone numbers at boundaries
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove noise words
	cleaned = removeNoiseWords(cleaned)

	// Step 5: Clean up punctuation that's now orphaned
	cleaned = cleanOrphanedPunctuation(cleaned)

	// Step 6: Normalize whitespace
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))

	if cleaned == "" {
		cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(lowered, " "))
	}

	p.log.WithFields(logrus.Fields{"name": name, "query": cleaned}).Debug("Preprocessed list item query")

	return cleaned
}

// truncateAtWord cuts s to at most limit bytes, preferring a word boundary in
// the second half of the window.
func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.RuneStart(s[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > limit/2 {
		cut = cut[:lastSpace]
	}
	return strings.TrimSpace(cut)
}

// removeNoiseWords removes marketing and generic terms from the query
func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:-'\"")
		if !queryNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := orphanedInnerPunctuation.ReplaceAllString(s, " ")
	result = orphanedTrailingPunctuation.ReplaceAllString(result, "")
	return orphanedLeadingPunctuation.ReplaceAllString(result, "")
}
