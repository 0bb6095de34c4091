package usecase

import (
	"strings"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

// Pipeline runs normalization and scoring over one raw input. It holds no
// request state and is safe for concurrent use.
type Pipeline struct {
	ingredients *IngredientNormalizer
	labels      *LabelExtractor
	engine      *ScoringEngine
}

// NewPipeline builds a pipeline over a scoring policy and synonym table.
func NewPipeline(p *policy.Policy, synonyms []policy.Synonym) *Pipeline {
	return &Pipeline{
		ingredients: NewIngredientNormalizer(synonyms),
		labels:      NewLabelExtractor(nil),
		engine:      NewScoringEngine(p),
	}
}

// Engine returns the scoring engine.
func (p *Pipeline) Engine() *ScoringEngine {
	return p.engine
}

// Ingredients returns the ingredient normalizer.
func (p *Pipeline) Ingredients() *IngredientNormalizer {
	return p.ingredients
}

// AnalyzeProduct scores a product database record.
func (p *Pipeline) AnalyzeProduct(product *domain.Product, source string) domain.Analysis {
	nutrients := NormalizeProduct(product)
	analysis := p.analyze(nutrients, source)
	analysis.Product = product
	if product != nil {
		analysis.Ingredients = p.ingredients.Normalize(product.IngredientsText)
	}
	return analysis
}

// AnalyzeText scores raw label text. When nothing could be extracted the
// analysis is still returned, together with ErrNoNutritionData, so callers
// can decide whether a neutral score is acceptable.
func (p *Pipeline) AnalyzeText(text string) (domain.Analysis, error) {
	nutrients := p.labels.Extract(text)
	analysis := p.analyze(nutrients, domain.SourceOCR)
	analysis.Text = strings.TrimSpace(text)
	if nutrients.IsEmpty() {
		return analysis, domain.ErrNoNutritionData
	}
	return analysis, nil
}

// ScoreNutrients scores an already canonical record.
func (p *Pipeline) ScoreNutrients(n domain.NutrientRecord) domain.ScoreResult {
	return p.engine.CalculateScore(n)
}

func (p *Pipeline) analyze(nutrients domain.NutrientRecord, source string) domain.Analysis {
	return domain.Analysis{
		Source:      source,
		Ingredients: []string{},
		Nutrients:   nutrients,
		Result:      p.engine.CalculateScore(nutrients),
		Completeness: domain.Completeness{
			Present: nutrients.CorePresent(),
			Total:   domain.CoreNutrientCount,
		},
		PolicyDigest: p.engine.Policy().Digest(),
	}
}
