package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// Token weight categories for scoring
const (
	weightFood        = 3.0 // Core food terms (biscuit, yogurt, cereal)
	weightDescriptive = 2.0 // Descriptive terms (whole, light, organic)
	weightDefault     = 1.0 // Everything else
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

// Scoring bonuses
const (
	brandMatchBonus      = 15.0 // Requested brand appears in the product's brands
	substringMatchBonus  = 10.0 // Query is a substring of the product name or vice versa
	defaultMinConfidence = 40.0
)

// foodTerms contains high-importance food keywords (weight 3.0)
var foodTerms = map[string]bool{
	// Dairy
	"milk": true, "cheese": true, "yogurt": true, "yoghurt": true, "butter": true,
	"cream": true, "skyr": true, "kefir": true, "mozzarella": true, "cheddar": true,
	// Bakery and cereals
	"bread": true, "biscuit": true, "biscuits": true, "cookie": true, "cookies": true,
	"cereal": true, "cereals": true, "granola": true, "muesli": true, "oats": true,
	"crackers": true, "wafer": true, "cake": true, "brioche": true, "croissant": true,
	"pasta": true, "rice": true, "noodles": true,
	// Spreads and sweets
	"chocolate": true, "spread": true, "jam": true, "honey": true, "candy": true,
	"bar": true, "bars": true, "praline": true, "caramel": true,
	// Savory snacks
	"chips": true, "crisps": true, "popcorn": true, "pretzels": true, "nuts": true,
	// Drinks
	"juice": true, "soda": true, "cola": true, "water": true, "tea": true,
	"coffee": true, "smoothie": true, "lemonade": true,
	// Prepared foods
	"pizza": true, "soup": true, "sauce": true, "ketchup": true, "mayonnaise": true,
	"sandwich": true, "ravioli": true, "lasagna": true, "burger": true,
	// Produce and proteins
	"apple": true, "orange": true, "banana": true, "strawberry": true, "tomato": true,
	"chicken": true, "tuna": true, "salmon": true, "ham": true, "egg": true, "eggs": true,
}

// descriptiveTerms contains medium-importance descriptive keywords (weight 2.0)
var descriptiveTerms = map[string]bool{
	"whole": true, "skimmed": true, "semi": true, "reduced": true, "low": true,
	"fat": true, "light": true, "lite": true, "diet": true, "zero": true,
	"organic": true, "bio": true, "natural": true, "fresh": true, "frozen": true,
	"dark": true, "white": true, "milk": true, "plain": true, "vanilla": true,
	"sugar": true, "free": true, "salted": true, "unsalted": true, "sweetened": true,
	"unsweetened": true, "wholegrain": true, "wholemeal": true, "gluten": true,
	"protein": true, "fiber": true, "fibre": true, "original": true, "classic": true,
}

// extendedStopWords includes basic English stop words plus product-specific noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	// Size/quantity units
	"oz": true, "fl": true, "lb": true, "ml": true, "cl": true, "kg": true,
	"gram": true, "grams": true, "liter": true, "litre": true,
	// Packaging terms
	"pack": true, "count": true, "ct": true, "box": true, "bag": true,
	"bottle": true, "can": true, "jar": true, "tub": true, "pouch": true,
	// Marketing terms
	"size": true, "value": true, "family": true, "new": true, "product": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	FuzzyEditDistance      int
}

// MatchingService ranks product search hits against the user's query
type MatchingService struct {
	minConfidenceThreshold float64
	enableFuzzyMatching    bool
	fuzzyEditDistance      int
	logger                 *slog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultMinConfidence
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &MatchingService{
		minConfidenceThreshold: threshold,
		enableFuzzyMatching:    config.EnableFuzzyMatching,
		fuzzyEditDistance:      fuzzyDist,
		logger:                 logging.New("match"),
	}
}

// RankCandidates scores every product against query and brand and returns
// them best first. When even the best candidate is below the confidence
// threshold the ranked list is still returned, together with ErrLowConfidence.
func (s *MatchingService) RankCandidates(
	ctx context.Context,
	query, brand string,
	products []domain.Product,
) ([]domain.ProductCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}

	candidates := make([]domain.ProductCandidate, 0, len(products))
	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, matched := s.calculateMatchScore(query, brand, product)
		s.logger.Debug("candidate scored",
			"query", query, "product", product.Name, "barcode", product.Barcode,
			"score", score, "matched", matched)

		candidates = append(candidates, domain.ProductCandidate{
			Product:       product,
			Confidence:    score,
			MatchedTokens: matched,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if best := candidates[0]; best.Confidence < s.minConfidenceThreshold {
		return candidates, domain.ErrLowConfidence
	}
	return candidates, nil
}

// calculateMatchScore computes similarity between the query and a product.
// Uses a weighted combination of:
//   - Query token coverage: weighted share of query tokens found in the product (most important)
//   - Product token coverage: share of product tokens found in the query
//   - Jaccard overlap
//
// plus brand and substring bonuses. Returns the score (0-100) and the
// matched query tokens.
func (s *MatchingService) calculateMatchScore(query, brand string, product domain.Product) (float64, []string) {
	queryTokens := tokenize(query)
	productText := strings.TrimSpace(product.Name + " " + product.Brands)
	productTokens := tokenize(productText)

	if len(queryTokens) == 0 || len(productTokens) == 0 {
		return 0, nil
	}

	productSet := make(map[string]bool, len(productTokens))
	for _, t := range productTokens {
		productSet[t] = true
	}

	var matchedWeight, totalWeight float64
	var matched []string
	for _, token := range queryTokens {
		weight := tokenWeight(token)
		totalWeight += weight

		if productSet[token] {
			matchedWeight += weight
			matched = append(matched, token)
			continue
		}
		if s.enableFuzzyMatching {
			for _, candidate := range productTokens {
				if fuzzyTokenMatch(token, candidate, s.fuzzyEditDistance) {
					matchedWeight += weight * fuzzyWeightFactor
					matched = append(matched, token)
					break
				}
			}
		}
	}
	queryCoverage := matchedWeight / totalWeight

	productMatched, _ := findIntersection(productTokens, queryTokens)
	productCoverage := float64(productMatched) / float64(len(productTokens))

	exact, _ := findIntersection(queryTokens, productTokens)
	jaccard := float64(exact) / float64(findUnion(queryTokens, productTokens))

	score := (queryCoverage*0.60 + productCoverage*0.20 + jaccard*0.20) * 100

	if brand != "" && strings.Contains(foldForMatch(product.Brands), foldForMatch(brand)) {
		score += brandMatchBonus
	}

	queryFolded := foldForMatch(query)
	nameFolded := foldForMatch(product.Name)
	if len(queryFolded) > 3 && nameFolded != "" &&
		(strings.Contains(nameFolded, queryFolded) || strings.Contains(queryFolded, nameFolded)) {
		score += substringMatchBonus
	}

	return min(score, 100), matched
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

// tokenize splits s into folded tokens without stop words, single
// characters or pure numbers. Duplicates are kept once.
func tokenize(s string) []string {
	words := strings.Fields(foldForMatch(s))

	tokens := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, word := range words {
		if len(word) <= 1 || extendedStopWords[word] || isNumeric(word) || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Short tokens produce too many false positives
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
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
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

	return prev[len(r2)]
}

// findIntersection returns how many of tokens1 appear in tokens2, and which
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool, len(tokens2))
	for _, t := range tokens2 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens1 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool, len(tokens1)+len(tokens2))
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}

// foldForMatch is cleanIngredient with accents removed, so "Crème" in a
// query matches "Creme" in a product name.
func foldForMatch(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "ß", "ss")

	// Chained transformers carry state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return cleanIngredient(s)
}
