package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

// Open Food Facts nutriment keys, all per 100 g
const (
	NutrimentEnergyKcal   = "energy-kcal_100g"
	NutrimentSugars       = "sugars_100g"
	NutrimentSalt         = "salt_100g"
	NutrimentFat          = "fat_100g"
	NutrimentSaturatedFat = "saturated-fat_100g"
	NutrimentFiber        = "fiber_100g"
	NutrimentProteins     = "proteins_100g"

	nutrimentAddedSugars       = "added-sugars_100g"
	nutrimentFruitVeg          = "fruits-vegetables-nuts_100g"
	nutrimentFruitVegEstimated = "fruits-vegetables-nuts-estimate-from-ingredients_100g"
)

// novaUltraProcessed is the NOVA group for ultra-processed foods
const novaUltraProcessed = 4

// NormalizeFromRecord maps a product database nutriment map onto the seven
// core canonical fields. A missing key, null, or value that cannot be read
// as a finite non-negative number leaves the field absent.
func NormalizeFromRecord(nutriments map[string]any) domain.NutrientRecord {
	return domain.NutrientRecord{
		EnergyKcal:   nutrimentValue(nutriments, NutrimentEnergyKcal),
		Sugars:       nutrimentValue(nutriments, NutrimentSugars),
		Salt:         nutrimentValue(nutriments, NutrimentSalt),
		Fat:          nutrimentValue(nutriments, NutrimentFat),
		SaturatedFat: nutrimentValue(nutriments, NutrimentSaturatedFat),
		Fiber:        nutrimentValue(nutriments, NutrimentFiber),
		Proteins:     nutrimentValue(nutriments, NutrimentProteins),
	}
}

// NormalizeProduct normalizes a product record and fills the optional
// fields the core map does not cover when the source reports them: added
// sugars, fruit/vegetable share and the NOVA ultra-processed flag.
func NormalizeProduct(product *domain.Product) domain.NutrientRecord {
	if product == nil {
		return domain.NutrientRecord{}
	}

	record := NormalizeFromRecord(product.Nutriments)
	record.AddedSugars = nutrimentValue(product.Nutriments, nutrimentAddedSugars)

	record.FruitVegPct = nutrimentValue(product.Nutriments, nutrimentFruitVeg)
	if record.FruitVegPct == nil {
		record.FruitVegPct = nutrimentValue(product.Nutriments, nutrimentFruitVegEstimated)
	}

	if product.NovaGroup > 0 {
		record.UltraProcessed = domain.Bool(product.NovaGroup == novaUltraProcessed)
	}
	return record
}

func nutrimentValue(nutriments map[string]any, key string) *float64 {
	raw, ok := nutriments[key]
	if !ok {
		return nil
	}
	v, ok := coerceFloat(raw)
	if !ok {
		return nil
	}
	return &v
}

// coerceFloat reads v as a finite, non-negative number. Numeric strings
// are accepted; booleans, null and anything else are not.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
