package usecase

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

func defaultIngredientNormalizer(t *testing.T) *IngredientNormalizer {
	t.Helper()
	table, err := policy.DefaultSynonyms()
	if err != nil {
		t.Fatalf("DefaultSynonyms() error = %v", err)
	}
	return NewIngredientNormalizer(table)
}

func TestIngredientNormalizer_Normalize(t *testing.T) {
	n := defaultIngredientNormalizer(t)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "folds synonyms and keeps order",
			input: "Sea Salt, Corn Syrup, Palm Oil",
			want:  []string{"salt", "sugar", "fat"},
		},
		{
			name:  "removes duplicates after folding",
			input: "Sucrose, glucose; dextrose\nSugar",
			want:  []string{"sugar"},
		},
		{
			name:  "longest variant wins over contained shorter ones",
			input: "High Fructose Corn Syrup, Fructose",
			want:  []string{"sugar"},
		},
		{
			name:  "strips punctuation and percentages",
			input: "Hazelnuts (13%), Skimmed Milk Powder 8.7%, Cocoa*",
			want:  []string{"hazelnuts 13", "milk powder 87", "cocoa"},
		},
		{
			name:  "several variants inside one entry",
			input: "emulsifier from whey protein and egg yolk",
			want:  []string{"emulsifier from milk protein and egg"},
		},
		{
			name:  "whole words only",
			input: "Honeycomb, Creamer",
			want:  []string{"honeycomb", "creamer"},
		},
		{
			name:  "keeps accented letters",
			input: "Crème fraîche, lait écrémé, Weißmehl, Jalapeño",
			want:  []string{"crème fraîche", "lait écrémé", "weißmehl", "jalapeño"},
		},
		{
			name:  "decomposed accents are composed",
			input: "Cre\u0300me frai\u0302che",
			want:  []string{"crème fraîche"},
		},
		{
			name:  "collapses inner whitespace",
			input: "  sunflower    oil  ,  ",
			want:  []string{"fat"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only delimiters",
			input: " , ;\n ,",
			want:  []string{},
		},
		{
			name:  "entries with no letters or digits are dropped",
			input: "water, %%, (), salt",
			want:  []string{"water", "salt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestIngredientNormalizer_CanonicalTermsAreFixedPoints(t *testing.T) {
	n := defaultIngredientNormalizer(t)
	table, _ := policy.DefaultSynonyms()

	for _, s := range table {
		if got := n.NormalizeTerm(s.Canonical); got != s.Canonical {
			t.Errorf("NormalizeTerm(%q) = %q, want it unchanged", s.Canonical, got)
		}
	}

	first := n.Normalize("Sea Salt, Corn Syrup, Palm Oil, Maida, Whey Protein, Lactose")
	second := n.Normalize(strings.Join(first, ", "))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("normalizing canonical output changed it (-first +second):\n%s", diff)
	}
}

func TestIngredientNormalizer_Deterministic(t *testing.T) {
	n := defaultIngredientNormalizer(t)
	input := "Partially Hydrogenated Oil, trans fat, Corn Starch, Maize Starch, atta"

	want := n.Normalize(input)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(want, n.Normalize(input)); diff != "" {
			t.Fatalf("run %d differs (-want +got):\n%s", i, diff)
		}
	}
	if diff := cmp.Diff([]string{"trans fat", "corn flour", "whole wheat flour"}, want); diff != "" {
		t.Errorf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestIngredientNormalizer_CustomTable(t *testing.T) {
	t.Run("small injected table", func(t *testing.T) {
		n := NewIngredientNormalizer([]policy.Synonym{
			{Variant: "E330", Canonical: "citric acid"},
			{Variant: "aqua", Canonical: "water"},
		})
		got := n.Normalize("Aqua, e330")
		if diff := cmp.Diff([]string{"water", "citric acid"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("variants match whole words next to accented letters", func(t *testing.T) {
		n := NewIngredientNormalizer([]policy.Synonym{
			{Variant: "sel", Canonical: "salt"},
			{Variant: "crème", Canonical: "cream"},
		})
		got := n.Normalize("Selé, sel marin, Crème, crèmes")
		if diff := cmp.Diff([]string{"selé", "salt marin", "cream", "crèmes"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty table only folds text", func(t *testing.T) {
		n := NewIngredientNormalizer(nil)
		got := n.Normalize("Sea Salt!, SEA SALT")
		if diff := cmp.Diff([]string{"sea salt"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("replacement is a single pass", func(t *testing.T) {
		n := NewIngredientNormalizer([]policy.Synonym{
			{Variant: "a", Canonical: "b"},
			{Variant: "b", Canonical: "c"},
		})
		if got := n.NormalizeTerm("a"); got != "b" {
			t.Errorf("NormalizeTerm(a) = %q, want %q", got, "b")
		}
	})
}

func TestCleanIngredient(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Whole-Grain  OATS ", "wholegrain oats"},
		{"Weißmehl", "weißmehl"},
		{"Café\tau lait", "café au lait"},
		{"E-471", "e471"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cleanIngredient(tt.input); got != tt.want {
				t.Errorf("cleanIngredient(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
