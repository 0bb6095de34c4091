package domain

import (
	"fmt"
	"math"
)

// NutrientRecord is the canonical, source-agnostic nutrition record used by
// scoring. Every value is per 100 g of product (energy in kcal). A nil field
// means the source did not provide a usable value; it is never a placeholder.
type NutrientRecord struct {
	EnergyKcal     *float64 `json:"energy_kcal"`
	Sugars         *float64 `json:"sugars_g"`
	AddedSugars    *float64 `json:"added_sugars_g"`
	Salt           *float64 `json:"salt_g"`
	Fat            *float64 `json:"fat_g"`
	SaturatedFat   *float64 `json:"saturated_fat_g"`
	Fiber          *float64 `json:"fiber_g"`
	Proteins       *float64 `json:"proteins_g"`
	FruitVegPct    *float64 `json:"fruit_veg_pct"`
	UltraProcessed *bool    `json:"ultra_processed"`

	// Carbohydrates is only populated from label text and is not scored.
	Carbohydrates *float64 `json:"carbohydrate_g,omitempty"`
}

// CoreNutrientCount is the number of core fields reported by CorePresent.
const CoreNutrientCount = 7

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// ValueOr returns *p, or def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// CorePresent counts how many of the seven core nutrients are present
// (energy, sugars, salt, fat, saturated fat, fiber, proteins).
func (r NutrientRecord) CorePresent() int {
	n := 0
	for _, v := range []*float64{r.EnergyKcal, r.Sugars, r.Salt, r.Fat, r.SaturatedFat, r.Fiber, r.Proteins} {
		if v != nil {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no numeric field at all is present.
func (r NutrientRecord) IsEmpty() bool {
	return r.CorePresent() == 0 &&
		r.AddedSugars == nil &&
		r.FruitVegPct == nil &&
		r.Carbohydrates == nil &&
		r.UltraProcessed == nil
}

// Validate reports the first numeric field that is negative or not finite.
// Absent fields are always valid.
func (r NutrientRecord) Validate() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"energy_kcal", r.EnergyKcal},
		{"sugars_g", r.Sugars},
		{"added_sugars_g", r.AddedSugars},
		{"salt_g", r.Salt},
		{"fat_g", r.Fat},
		{"saturated_fat_g", r.SaturatedFat},
		{"fiber_g", r.Fiber},
		{"proteins_g", r.Proteins},
		{"fruit_veg_pct", r.FruitVegPct},
		{"carbohydrate_g", r.Carbohydrates},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if v := *f.value; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidRequest, f.name, v)
		}
	}
	return nil
}

// ScoreResult is the outcome of scoring a NutrientRecord. Drivers and
// Evidence are positionally aligned: each index describes one triggered rule.
type ScoreResult struct {
	Score    int      `json:"score"`
	Grade    string   `json:"grade"`
	Band     string   `json:"band"`
	Drivers  []string `json:"drivers"`
	Evidence []string `json:"evidence"`
}

// Completeness reports how much of the core nutrient set was available.
type Completeness struct {
	Present int `json:"present"`
	Total   int `json:"total"`
}

// Analysis bundles everything derived for one product: its normalized
// ingredients, canonical nutrients and score.
type Analysis struct {
	Source       string         `json:"source"` // "openfoodfacts", "record" or "ocr"
	Product      *Product       `json:"product,omitempty"`
	Ingredients  []string       `json:"ingredients"`
	Nutrients    NutrientRecord `json:"nutrients"`
	Result       ScoreResult    `json:"result"`
	Completeness Completeness   `json:"completeness"`
	PolicyDigest string         `json:"policyDigest"`
	Text         string         `json:"text,omitempty"` // OCR text the analysis was built from
}

// Analysis sources.
const (
	SourceOpenFoodFacts = "openfoodfacts"
	SourceRecord        = "record"
	SourceOCR           = "ocr"
)
