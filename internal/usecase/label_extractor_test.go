package usecase

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

func TestLabelExtractor_Extract(t *testing.T) {
	extractor := NewLabelExtractor(nil)

	tests := []struct {
		name string
		text string
		want domain.NutrientRecord
	}{
		{
			name: "single line label",
			text: "Energy 250kcal  Fat 12.5g  Sugars 8g",
			want: domain.NutrientRecord{
				EnergyKcal: domain.Float(250),
				Fat:        domain.Float(12.5),
				Sugars:     domain.Float(8),
			},
		},
		{
			name: "european label with kJ and of-which lines",
			text: "Nutrition per 100g: Energy 1046kJ / 250kcal, Fat 9.8g, of which saturates 3.1g, " +
				"Carbohydrate 30g, of which sugars 12g, Fibre 2.5g, Protein 6.1g, Salt 0.85g",
			want: domain.NutrientRecord{
				EnergyKcal:    domain.Float(250),
				Fat:           domain.Float(9.8),
				SaturatedFat:  domain.Float(3.1),
				Carbohydrates: domain.Float(30),
				Sugars:        domain.Float(12),
				Fiber:         domain.Float(2.5),
				Proteins:      domain.Float(6.1),
				Salt:          domain.Float(0.85),
			},
		},
		{
			name: "saturated fat listed before total fat",
			text: "Saturated Fat 3g Total Fat 10g",
			want: domain.NutrientRecord{
				Fat:          domain.Float(10),
				SaturatedFat: domain.Float(3),
			},
		},
		{
			name: "added sugars do not count as sugars",
			text: "Total Sugars 10g Includes 5g Added Sugars",
			want: domain.NutrientRecord{
				Sugars:      domain.Float(10),
				AddedSugars: domain.Float(5),
			},
		},
		{
			name: "multi-line table with colons and decimal commas",
			text: "ENERGY: 480 kcal\nFAT: 24,5 g\nSATURATES: 14 g\nSUGARS: 41,2 g\nSALT: 0,2 g",
			want: domain.NutrientRecord{
				EnergyKcal:   domain.Float(480),
				Fat:          domain.Float(24.5),
				SaturatedFat: domain.Float(14),
				Sugars:       domain.Float(41.2),
				Salt:         domain.Float(0.2),
			},
		},
		{
			name: "bracketed unit column",
			text: "Protein (g) 7.2",
			want: domain.NutrientRecord{Proteins: domain.Float(7.2)},
		},
		{
			name: "number before keyword",
			text: "Each bar contains 12g protein and 3g fibre",
			want: domain.NutrientRecord{
				Proteins: domain.Float(12),
				Fiber:    domain.Float(3),
			},
		},
		{
			name: "calories without a unit",
			text: "Calories 120",
			want: domain.NutrientRecord{EnergyKcal: domain.Float(120)},
		},
		{
			name: "daily value footer does not override calories",
			text: "Calories 250\nTotal Fat 8g\n2,000 calories a day is used for general nutrition advice.",
			want: domain.NutrientRecord{
				EnergyKcal: domain.Float(250),
				Fat:        domain.Float(8),
			},
		},
		{
			name: "thousands separator in energy",
			text: "Energy 1,046 kcal",
			want: domain.NutrientRecord{EnergyKcal: domain.Float(1046)},
		},
		{
			name: "decimal comma with three digits after a zero",
			text: "Salt 0,125 g",
			want: domain.NutrientRecord{Salt: domain.Float(0.125)},
		},
		{
			name: "first match wins",
			text: "Fat 5g per serving. Fat 7g per 100g",
			want: domain.NutrientRecord{Fat: domain.Float(5)},
		},
		{
			name: "sodium is not read as salt",
			text: "Sodium 400mg",
			want: domain.NutrientRecord{},
		},
		{
			name: "no nutrition values",
			text: "Ingredients: water, sugar, lemon juice",
			want: domain.NutrientRecord{},
		},
		{
			name: "empty text",
			text: "",
			want: domain.NutrientRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractor.Extract(tt.text))
		})
	}
}

func TestLabelExtractor_CustomRules(t *testing.T) {
	extractor := NewLabelExtractor([]ExtractionRule{
		{
			Field:    "fiber_g",
			Patterns: []*regexp.Regexp{keywordFirst(`ballaststoffe`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Fiber = &v },
		},
		{
			Field:    "ignored",
			Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)fett\s+(\d+)`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Fat = &v },
		},
	})

	got := extractor.Extract("Fett 3 g, Ballaststoffe 4,1 g, Fat 9g")

	assert.Equal(t, domain.NutrientRecord{Fiber: domain.Float(4.1)}, got,
		"patterns without a value group are skipped and default rules are not applied")
}

func TestParseLabelNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"12", 12, true},
		{"12.5", 12.5, true},
		{"12,5", 12.5, true},
		{"2,000", 2000, true},
		{"1,046", 1046, true},
		{"12,345.5", 12345.5, true},
		{"0,125", 0.125, true},
		{"12,50", 12.5, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLabelNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
