package domain

// Product is a packaged food as supplied by a product database lookup.
// Nutriments keeps the source's own field names and raw values; it is
// normalized into a NutrientRecord before scoring.
type Product struct {
	Barcode         string         `json:"barcode,omitempty"`
	Name            string         `json:"productName,omitempty"`
	Brands          string         `json:"brands,omitempty"`
	ImageURL        string         `json:"imageUrl,omitempty"`
	IngredientsText string         `json:"ingredientsText,omitempty"`
	Nutriments      map[string]any `json:"nutriments,omitempty"`
	NovaGroup       int            `json:"novaGroup,omitempty"` // 1-4, 0 when unknown
}

// ProductCandidate is one search hit ranked against the user's query.
type ProductCandidate struct {
	Product       Product  `json:"product"`
	Confidence    float64  `json:"confidence"` // 0-100
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
