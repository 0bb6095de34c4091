package usecase

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// maxQueryLength bounds the search terms sent to the product database
const maxQueryLength = 100

// QueryPreprocessor turns a typed product name into focused search terms
type QueryPreprocessor struct {
	logger *slog.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches size/quantity patterns like "400 g", "1.5l", "33 cl", "12 oz"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:fl\s*)?(?:oz|ounces?|lbs?|pounds?|ml|cl|dl|l|liters?|litres?|kg|grams?|g)\b`)

	// Matches pack/count patterns like "6 pack", "pack of 6", "6x", "24 count", "4 x 125g"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+\s*[-x×]?\s*(?:pack|pk|count|ct|pcs|pieces?|bars?|cans?|bottles?)\b|\bpack\s*of\s*\d+\b|\b\d+\s*[x×]\b`)

	// Matches standalone numbers left at the edges ("- 12", "12,")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+(?:\.\d+)?\s*$|^\d+(?:\.\d+)?\s*[,\-]`)

	// Characters the search endpoint does not tokenize usefully
	specialCharsPattern = regexp.MustCompile("[#%+@!^*()=\\[\\]{}<>|\\\\~`\"]")

	orphanedPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctuationPattern = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctuationPattern  = regexp.MustCompile(`^\s*[,\-;:]+`)
)

// queryNoiseWords are marketing and packaging terms that never narrow a search
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "quality": true, "best": true,
	"delicious": true, "tasty": true, "favorite": true, "special": true,
	"recipe": true, "edition": true, "limited": true,

	// Size descriptors
	"size": true, "large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "giant": true, "big": true, "maxi": true, "xl": true,

	// Packaging terms
	"package": true, "box": true, "bag": true, "bottle": true, "can": true,
	"jar": true, "tub": true, "carton": true, "pouch": true, "tube": true,
	"multipack": true, "sachet": true,

	// Generic terms
	"food": true, "item": true, "product": true, "brand": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor() *QueryPreprocessor {
	return &QueryPreprocessor{logger: logging.New("query")}
}

// PreprocessQuery cleans a product name for a product database search.
// Removes size/quantity info, pack counts, marketing terms, and normalizes
// whitespace. The brand is prepended unless the name already contains it.
func (p *QueryPreprocessor) PreprocessQuery(productName, brand string) string {
	if strings.TrimSpace(productName) == "" {
		return strings.TrimSpace(brand)
	}

	cleaned := strings.ReplaceAll(productName, "&", " and ")
	cleaned = specialCharsPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = cleanOrphanedPunctuation(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if brand = strings.TrimSpace(brand); brand != "" {
		if !strings.Contains(strings.ToLower(cleaned), strings.ToLower(brand)) {
			cleaned = strings.TrimSpace(brand + " " + cleaned)
		}
	}

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		// Cut at a word boundary when one is close
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	p.logger.Debug("query preprocessed", "input", productName, "output", cleaned)
	return cleaned
}

// ExtractFoodKeywords returns the tokens of text ordered by importance:
// food terms, then descriptive terms, then everything else.
func (p *QueryPreprocessor) ExtractFoodKeywords(text string) []string {
	tokens := tokenize(text)

	var highPriority, medPriority, lowPriority []string
	for _, token := range tokens {
		switch tokenWeight(token) {
		case weightFood:
			highPriority = append(highPriority, token)
		case weightDescriptive:
			medPriority = append(medPriority, token)
		default:
			lowPriority = append(lowPriority, token)
		}
	}

	result := make([]string, 0, len(tokens))
	result = append(result, highPriority...)
	result = append(result, medPriority...)
	result = append(result, lowPriority...)
	return result
}

// removeNoiseWords drops marketing and generic terms, keeping the rest
// lowercased.
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if !queryNoiseWords[strings.Trim(word, ",.!?;:-'\"")] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation left alone by earlier steps
func cleanOrphanedPunctuation(s string) string {
	s = orphanedPunctuationPattern.ReplaceAllString(s, " ")
	s = trailingPunctuationPattern.ReplaceAllString(s, "")
	return leadingPunctuationPattern.ReplaceAllString(s, "")
}
