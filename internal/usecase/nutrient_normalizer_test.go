package usecase

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

func TestNormalizeFromRecord(t *testing.T) {
	t.Run("maps the seven core keys", func(t *testing.T) {
		record := NormalizeFromRecord(map[string]any{
			NutrimentEnergyKcal:   539.0,
			NutrimentSugars:       56.3,
			NutrimentSalt:         0.107,
			NutrimentFat:          30.9,
			NutrimentSaturatedFat: 10.6,
			NutrimentFiber:        3.4,
			NutrimentProteins:     6.3,
		})

		assert.Equal(t, domain.NutrientRecord{
			EnergyKcal:   domain.Float(539),
			Sugars:       domain.Float(56.3),
			Salt:         domain.Float(0.107),
			Fat:          domain.Float(30.9),
			SaturatedFat: domain.Float(10.6),
			Fiber:        domain.Float(3.4),
			Proteins:     domain.Float(6.3),
		}, record)
		assert.Equal(t, domain.CoreNutrientCount, record.CorePresent())
	})

	t.Run("nil map yields an all-absent record", func(t *testing.T) {
		record := NormalizeFromRecord(nil)
		assert.True(t, record.IsEmpty())
		assert.Equal(t, 0, record.CorePresent())
	})

	t.Run("ignores optional keys", func(t *testing.T) {
		record := NormalizeFromRecord(map[string]any{
			nutrimentAddedSugars: 12.0,
			nutrimentFruitVeg:    80.0,
		})
		assert.Nil(t, record.AddedSugars)
		assert.Nil(t, record.FruitVegPct)
	})

	t.Run("zero is present, not absent", func(t *testing.T) {
		record := NormalizeFromRecord(map[string]any{NutrimentSugars: 0.0})
		require.NotNil(t, record.Sugars)
		assert.Equal(t, 0.0, *record.Sugars)
	})

	t.Run("values are not range checked", func(t *testing.T) {
		record := NormalizeFromRecord(map[string]any{NutrimentEnergyKcal: 10000.0})
		assert.Equal(t, 10000.0, *record.EnergyKcal)
	})
}

func TestNormalizeFromRecord_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *float64
	}{
		{"float64", 12.5, domain.Float(12.5)},
		{"int", 12, domain.Float(12)},
		{"json number", json.Number("4.2"), domain.Float(4.2)},
		{"numeric string", "0.75", domain.Float(0.75)},
		{"padded numeric string", " 3 ", domain.Float(3)},
		{"non-numeric string", "traces", nil},
		{"empty string", "", nil},
		{"null", nil, nil},
		{"bool", true, nil},
		{"negative", -1.0, nil},
		{"NaN", math.NaN(), nil},
		{"infinity", math.Inf(1), nil},
		{"NaN string", "NaN", nil},
		{"nested object", map[string]any{"value": 1.0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NormalizeFromRecord(map[string]any{NutrimentFiber: tt.value})
			assert.Equal(t, tt.want, record.Fiber)
		})
	}
}

func TestNormalizeProduct(t *testing.T) {
	t.Run("fills optional fields from the product", func(t *testing.T) {
		record := NormalizeProduct(&domain.Product{
			NovaGroup: 4,
			Nutriments: map[string]any{
				NutrimentSugars:      20.0,
				nutrimentAddedSugars: "11",
				nutrimentFruitVeg:    65.0,
			},
		})

		assert.Equal(t, domain.Float(20), record.Sugars)
		assert.Equal(t, domain.Float(11), record.AddedSugars)
		assert.Equal(t, domain.Float(65), record.FruitVegPct)
		require.NotNil(t, record.UltraProcessed)
		assert.True(t, *record.UltraProcessed)
	})

	t.Run("falls back to the estimated fruit/veg share", func(t *testing.T) {
		record := NormalizeProduct(&domain.Product{
			Nutriments: map[string]any{nutrimentFruitVegEstimated: 42.5},
		})
		assert.Equal(t, domain.Float(42.5), record.FruitVegPct)
	})

	t.Run("known non-ultra-processed NOVA group", func(t *testing.T) {
		record := NormalizeProduct(&domain.Product{NovaGroup: 1})
		require.NotNil(t, record.UltraProcessed)
		assert.False(t, *record.UltraProcessed)
	})

	t.Run("unknown NOVA group leaves the flag absent", func(t *testing.T) {
		record := NormalizeProduct(&domain.Product{})
		assert.Nil(t, record.UltraProcessed)
	})

	t.Run("nil product", func(t *testing.T) {
		assert.True(t, NormalizeProduct(nil).IsEmpty())
	})
}
