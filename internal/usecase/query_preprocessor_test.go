package usecase

import (
	"reflect"
	"strings"
	"testing"
)

func TestPreprocessQuery(t *testing.T) {
	p := NewQueryPreprocessor()

	testCases := []struct {
		name        string
		productName string
		brand       string
		want        string
	}{
		{
			name:        "removes metric size",
			productName: "Nutella Hazelnut Spread 400g",
			want:        "nutella hazelnut spread",
		},
		{
			name:        "removes multipack and volume",
			productName: "Coca-Cola Zero 6 x 330ml",
			want:        "coca-cola zero",
		},
		{
			name:        "removes pack of N",
			productName: "Oreo Cookies pack of 12",
			want:        "oreo cookies",
		},
		{
			name:        "removes count and trailing comma",
			productName: "Granola Bars, 6 Count",
			want:        "granola bars",
		},
		{
			name:        "replaces ampersand",
			productName: "Ben & Jerry's Chocolate Fudge Brownie",
			want:        "ben and jerry's chocolate fudge brownie",
		},
		{
			name:        "prepends missing brand and drops marketing terms",
			productName: "Choco Pops Family Size 500 g",
			brand:       "Kellogg's",
			want:        "Kellogg's choco pops",
		},
		{
			name:        "keeps name that already contains brand",
			productName: "Lindt Excellence Dark 70%",
			brand:       "Lindt",
			want:        "lindt excellence dark 70",
		},
		{
			name:        "empty name falls back to brand",
			productName: "  ",
			brand:       " Danone ",
			want:        "Danone",
		},
		{
			name: "empty name and brand",
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.PreprocessQuery(tc.productName, tc.brand)
			if got != tc.want {
				t.Errorf("PreprocessQuery(%q, %q) = %q, want %q", tc.productName, tc.brand, got, tc.want)
			}
		})
	}
}

func TestPreprocessQueryTruncatesLongInput(t *testing.T) {
	p := NewQueryPreprocessor()

	got := p.PreprocessQuery(strings.Repeat("chocolate ", 20), "")
	if len(got) > maxQueryLength {
		t.Errorf("len(query) = %d, want <= %d", len(got), maxQueryLength)
	}
	if !strings.HasSuffix(got, "chocolate") {
		t.Errorf("query %q was not cut at a word boundary", got)
	}
}

func TestExtractFoodKeywords(t *testing.T) {
	p := NewQueryPreprocessor()

	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "orders food then descriptive then other terms",
			text: "Organic Dark Chocolate Ferrero",
			want: []string{"chocolate", "organic", "dark", "ferrero"},
		},
		{
			name: "drops stop words",
			text: "Rice with Tomato Sauce",
			want: []string{"rice", "tomato", "sauce"},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.ExtractFoodKeywords(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractFoodKeywords(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
