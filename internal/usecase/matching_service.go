package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
	sizeTokenRegex   = regexp.MustCompile(`^\d+(\.\d+)?(ml|l|g|kg|pk|x)?$`)
)

// Token weight categories for scoring
const (
	weightFood        = 3.0 // Core grocery terms (milk, chicken, bread)
	weightDescriptive = 2.0 // Descriptive terms (full, skim, organic)
	weightDefault     = 1.0 // Everything else
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

// Scoring bonuses
const (
	brandMatchBonus     = 15.0 // Product brand named in the list item
	substringMatchBonus = 10.0 // List item name is a substring of the product name
	defaultMinRelevance = 40.0
)

// foodTerms contains high-importance grocery keywords (weight 3.0)
var foodTerms = map[string]bool{
	// Proteins
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"lamb": true, "mince": true, "prawn": true, "tuna": true, "bacon": true,
	"sausage": true, "steak": true, "ham": true,
	// Dairy
	"milk": true, "cheese": true, "yoghurt": true, "yogurt": true, "butter": true,
	"cream": true, "egg": true, "cheddar": true, "mozzarella": true,
	// Grains
	"bread": true, "rice": true, "pasta": true, "cereal": true, "oat": true,
	"flour": true, "noodle": true, "wrap": true, "muesli": true,
	// Produce
	"apple": true, "banana": true, "orange": true, "lettuce": true, "tomato": true,
	"potato": true, "onion": true, "carrot": true, "broccoli": true, "spinach": true,
	"strawberry": true, "blueberry": true, "grape": true, "lemon": true, "avocado": true,
	"cucumber": true, "capsicum": true, "mushroom": true,
	// Pantry and drinks
	"juice": true, "coffee": true, "tea": true, "water": true, "sugar": true,
	"chip": true, "biscuit": true, "chocolate": true, "sauce": true, "honey": true,
	"jam": true, "oil": true, "vegemite": true,
}

// descriptiveTerms contains medium-importance descriptive keywords (weight 2.0)
var descriptiveTerms = map[string]bool{
	"full": true, "skim": true, "reduced": true, "fat": true, "low": true,
	"lite": true, "light": true, "organic": true, "fresh": true, "frozen": true,
	"free": true, "range": true, "wholemeal": true, "white": true, "brown": true,
	"grain": true, "plain": true, "greek": true, "smoked": true, "unsalted": true,
	"salted": true, "lactose": true, "gluten": true, "vanilla": true, "original": true,
}

// extendedStopWords includes basic English stop words plus product-specific noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true,
	// Size/quantity units
	"ml": true, "kg": true, "litre": true, "litres": true, "gram": true, "grams": true,
	"each": true, "per": true, "approx": true,
	// Packaging terms
	"pack": true, "packs": true, "pk": true, "count": true, "box": true,
	"bag": true, "bottle": true, "can": true, "tub": true, "jar": true, "punnet": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinRelevance        float64
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
}

// MatchingService scores how well a retailer product matches a generic
// shopping-list name.
type MatchingService struct {
	minRelevance        float64
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	log                 logrus.FieldLogger
}

// ScoredResult is a search result with its relevance to a list item name.
type ScoredResult struct {
	Result        domain.AugmentedResult
	Relevance     float64
	MatchedTokens []string
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, log logrus.FieldLogger) *MatchingService {
	threshold := config.MinRelevance
	if threshold <= 0 {
		threshold = defaultMinRelevance
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &MatchingService{
		minRelevance:        threshold,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		log:                 log,
	}
}

// MinRelevance returns the score a candidate needs to count as relevant.
func (s *MatchingService) MinRelevance() float64 {
	return s.minRelevance
}

// Rank scores every result against name, preserving input order.
func (s *MatchingService) Rank(ctx context.Context, name string, results []domain.AugmentedResult) ([]ScoredResult, error) {
	scored := make([]ScoredResult, 0, len(results))
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, matched := s.Score(name, r.Product)
		scored = append(scored, ScoredResult{Result: r, Relevance: score, MatchedTokens: matched})

		s.log.WithFields(logrus.Fields{
			"name":    name,
			"product": r.Product.Name,
			"store":   r.StoreID,
			"score":   score,
		}).Debug("Scored candidate")
	}
	return scored, nil
}

// Relevant keeps the candidates at or above the threshold. When none
// qualifies every candidate is kept.
func (s *MatchingService) Relevant(scored []ScoredResult) []ScoredResult {
	kept := make([]ScoredResult, 0, len(scored))
	for _, c := range scored {
		if c.Relevance >= s.minRelevance {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return scored
	}
	return kept
}

// Score computes similarity between a list item name and a product.
// Uses a weighted combination of:
//   - Name coverage: weighted share of the name tokens found in the product (most important)
//   - Product coverage: share of the product tokens found in the name
//   - Jaccard overlap
//   - Brand and substring bonuses
//
// Returns the score (0-100) and the list of matched tokens.
func (s *MatchingService) Score(name string, product domain.CanonicalProduct) (float64, []string) {
	nameTokens := uniqueTokens(tokenize(name))
	productTokens := uniqueTokens(tokenize(product.Brand + " " + product.Name))

	if len(nameTokens) == 0 || len(productTokens) == 0 {
		return 0, nil
	}

	productSet := make(map[string]bool, len(productTokens))
	for _, t := range productTokens {
		productSet[t] = true
	}

	var (
		totalWeight   float64
		matchedWeight float64
		exactMatches  int
		matchedTokens []string
	)
	for _, t := range nameTokens {
		w := tokenWeight(t)
		totalWeight += w

		if productSet[t] {
			matchedWeight += w
			exactMatches++
			matchedTokens = append(matchedTokens, t)
			continue
		}
		if s.enableFuzzyMatching {
			for _, pt := range productTokens {
				if fuzzyTokenMatch(t, pt, s.fuzzyEditDistance) {
					matchedWeight += w * fuzzyWeightFactor
					matchedTokens = append(matchedTokens, pt)
					break
				}
			}
		}
	}

	nameCoverage := matchedWeight / totalWeight
	productCoverage := float64(exactMatches) / float64(len(productTokens))
	jaccard := float64(exactMatches) / float64(len(nameTokens)+len(productTokens)-exactMatches)

	score := (nameCoverage*0.60 + productCoverage*0.20 + jaccard*0.20) * 100

	nameLower := strings.ToLower(strings.TrimSpace(name))
	productLower := strings.ToLower(product.Name)

	if brand := strings.ToLower(strings.TrimSpace(product.Brand)); brand != "" && strings.Contains(nameLower, brand) {
		score += brandMatchBonus
	}

	if len(nameLower) > 3 && strings.Contains(productLower, nameLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}

	return score, matchedTokens
}

func tokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words, sizes and pure numeric tokens, and folds
// simple plurals so "eggs" matches "egg".
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if sizeTokenRegex.MatchString(word) {
			continue
		}
		tokens = append(tokens, singular(word))
	}

	return tokens
}

// singular strips a trailing plural "s" from words longer than three letters.
func singular(word string) string {
	if len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		if strings.HasSuffix(word, "ies") {
			return word[:len(word)-3] + "y"
		}
		return word[:len(word)-1]
	}
	return word
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
