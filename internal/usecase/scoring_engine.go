package usecase

import (
	"fmt"
	"math"
	"strconv"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

// Score bounds
const (
	minScore = 0
	maxScore = 100
)

// ScoringEngine maps a canonical nutrient record onto a 0-100 health score.
// It is immutable and safe for concurrent use.
type ScoringEngine struct {
	policy *policy.Policy
}

// NewScoringEngine creates an engine over a loaded policy.
func NewScoringEngine(p *policy.Policy) *ScoringEngine {
	return &ScoringEngine{policy: p}
}

// Policy returns the policy the engine scores with.
func (e *ScoringEngine) Policy() *policy.Policy {
	return e.policy
}

// explanation collects one driver and one evidence line per triggered rule.
type explanation struct {
	drivers  []string
	evidence []string
}

func (x *explanation) add(driver, evidence string) {
	x.drivers = append(x.drivers, driver)
	x.evidence = append(x.evidence, evidence)
}

// CalculateScore scores a record. Absent values count as zero, so scoring
// never fails; a record with nothing present lands on the neutral score.
//
// Rules are evaluated penalties first (energy, sugars, added sugars,
// saturated fat, sodium, ultra-processed), then bonuses (fiber, protein,
// fruit/veg); drivers and evidence follow that order.
func (e *ScoringEngine) CalculateScore(n domain.NutrientRecord) domain.ScoreResult {
	p := e.policy
	x := &explanation{drivers: make([]string, 0, 9), evidence: make([]string, 0, 9)}

	energy := domain.ValueOr(n.EnergyKcal, 0)
	sugars := domain.ValueOr(n.Sugars, 0)
	addedSugars := domain.ValueOr(n.AddedSugars, 0)
	saturatedFat := domain.ValueOr(n.SaturatedFat, 0)
	salt := domain.ValueOr(n.Salt, 0)
	sodium := salt * p.Sodium.MgPerGramSalt
	fiber := domain.ValueOr(n.Fiber, 0)
	protein := domain.ValueOr(n.Proteins, 0)
	fruitVeg := domain.ValueOr(n.FruitVegPct, 0)
	ultraProcessed := n.UltraProcessed != nil && *n.UltraProcessed

	negative := 0
	if tier, ok := p.Energy.Tiers.Match(energy); ok {
		negative += tier.Points
		x.add(fmt.Sprintf("Very high energy: %s kcal/100g", formatAmount(energy)),
			fmt.Sprintf("Energy > %s kcal/100g", formatAmount(tier.Above)))
	}
	if tier, ok := p.Sugars.Tiers.Match(sugars); ok {
		negative += tier.Points
		x.add(fmt.Sprintf("High sugar content: %s g/100g", formatAmount(sugars)),
			fmt.Sprintf("Sugars > %s g/100g", formatAmount(tier.Above)))
	}
	if addedSugars > p.AddedSugars.Above {
		// Capped in float space: the quotient may not fit in an int.
		steps := math.Floor(addedSugars / p.AddedSugars.Step)
		negative += int(math.Min(float64(p.AddedSugars.MaxPoints), steps))
		x.add(fmt.Sprintf("Added sugars: %s g/100g", formatAmount(addedSugars)), p.AddedSugars.Citation)
	}
	if tier, ok := p.SaturatedFat.Tiers.Match(saturatedFat); ok {
		negative += tier.Points
		x.add(fmt.Sprintf("High saturated fat: %s g/100g", formatAmount(saturatedFat)),
			fmt.Sprintf("Saturated fat > %s g/100g", formatAmount(tier.Above)))
	}
	if tier, ok := p.Sodium.Tiers.Match(sodium); ok {
		negative += tier.Points
		x.add(fmt.Sprintf("High sodium: %.2f g salt/100g", salt),
			fmt.Sprintf("Sodium > %s mg/100g", formatAmount(tier.Above)))
	}
	if ultraProcessed {
		negative += p.UltraProcessed.Points
		x.add("Ultra-processed food penalty", p.UltraProcessed.Citation)
	}

	positive := 0
	if tier, ok := p.Fiber.Tiers.Match(fiber); ok {
		positive += tier.Points
		x.add(fmt.Sprintf("Good fiber: %s g/100g", formatAmount(fiber)),
			fmt.Sprintf("Fiber > %s g/100g", formatAmount(tier.Above)))
	}
	if tier, ok := p.Protein.Tiers.Match(protein); ok {
		positive += tier.Points
		x.add(fmt.Sprintf("Good protein: %s g/100g", formatAmount(protein)),
			fmt.Sprintf("Protein > %s g/100g", formatAmount(tier.Above)))
	}
	for _, tier := range p.FruitVeg {
		if fruitVeg >= tier.AtLeast {
			positive += tier.Points
			x.add(fmt.Sprintf("%s fruit/veg content: %s%%", tier.Label, formatAmount(fruitVeg)),
				fmt.Sprintf("Nutri-Score bonus for ≥%s%% fruit/veg", formatAmount(tier.AtLeast)))
			break
		}
	}

	score := e.normalize(negative - positive)
	band := p.BandFor(score)

	return domain.ScoreResult{
		Score:    score,
		Grade:    band.Grade,
		Band:     band.Name,
		Drivers:  x.drivers,
		Evidence: x.evidence,
	}
}

// normalize maps raw points (penalties minus bonuses) onto 0-100.
func (e *ScoringEngine) normalize(raw int) int {
	s := e.policy.Scale
	score := math.Round(s.Base - (float64(raw)+s.Offset)*s.Factor)
	return int(math.Max(minScore, math.Min(maxScore, score)))
}

// formatAmount prints v without trailing zeros: 4000, 22.5, 0.9.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
