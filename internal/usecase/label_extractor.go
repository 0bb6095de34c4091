package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

// Building blocks for label patterns.
const (
	// labelNumber reads "2,000" as thousands grouping; any other comma is a
	// decimal separator ("12,5").
	labelNumber = `(?P<value>[1-9]\d{0,2}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)`
	// labelGap is what may sit between a keyword and its number: punctuation,
	// dots and spaces, optionally a bracketed unit like "(g)".
	labelGap = `[^\w\n]{0,16}(?:\((?:g|kcal)\)[^\w\n]{0,8})?`
	// excludeWindow is how far back an exclusion word is looked for.
	excludeWindow = 12
)

// ExtractionRule ties one canonical nutrient to the label patterns that
// report it. Patterns are tried in order; within a pattern the leftmost
// match wins. A match is skipped when one of Exclude appears in the text
// just before it.
type ExtractionRule struct {
	Field    string
	Patterns []*regexp.Regexp
	Exclude  []string
	Assign   func(record *domain.NutrientRecord, value float64)
}

// keywordFirst matches "Fat 12.5g", "Fat: 12,5 g", "Fat (g) 12.5".
func keywordFirst(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + keyword + `)\b` + labelGap + labelNumber)
}

// numberFirst matches "12.5g fat", "12.5 g of fat".
func numberFirst(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + labelNumber + `\s*g?\s+(?:of\s+)?(?:` + keyword + `)\b`)
}

// DefaultExtractionRules returns the built-in label rules. Energy is only
// read in kcal; kJ figures and sodium (as opposed to salt) are ignored.
func DefaultExtractionRules() []ExtractionRule {
	return []ExtractionRule{
		{
			Field: "energy_kcal",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:energy|calories)\b` + labelGap + labelNumber + `\s*k?cal`),
				keywordFirst(`calories`),
				regexp.MustCompile(`(?i)` + labelNumber + `\s*k?cal(?:ories)?\b`),
			},
			Assign: func(r *domain.NutrientRecord, v float64) { r.EnergyKcal = &v },
		},
		{
			Field:    "fat_g",
			Patterns: []*regexp.Regexp{keywordFirst(`fats?`), numberFirst(`fats?`)},
			Exclude:  []string{"saturat", "trans"},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Fat = &v },
		},
		{
			Field: "saturated_fat_g",
			Patterns: []*regexp.Regexp{
				keywordFirst(`saturat\w*(?:\s+fats?)?`),
				numberFirst(`saturat\w*`),
			},
			Assign: func(r *domain.NutrientRecord, v float64) { r.SaturatedFat = &v },
		},
		{
			Field:    "carbohydrate_g",
			Patterns: []*regexp.Regexp{keywordFirst(`carbohydrates?`), numberFirst(`carbohydrates?`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Carbohydrates = &v },
		},
		{
			Field:    "sugars_g",
			Patterns: []*regexp.Regexp{keywordFirst(`sugars?`), numberFirst(`sugars?`)},
			Exclude:  []string{"added"},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Sugars = &v },
		},
		{
			Field:    "added_sugars_g",
			Patterns: []*regexp.Regexp{keywordFirst(`added\s+sugars?`), numberFirst(`added\s+sugars?`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.AddedSugars = &v },
		},
		{
			Field:    "fiber_g",
			Patterns: []*regexp.Regexp{keywordFirst(`fib(?:er|re)s?`), numberFirst(`fib(?:er|re)s?`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Fiber = &v },
		},
		{
			Field:    "proteins_g",
			Patterns: []*regexp.Regexp{keywordFirst(`proteins?`), numberFirst(`proteins?`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Proteins = &v },
		},
		{
			Field:    "salt_g",
			Patterns: []*regexp.Regexp{keywordFirst(`salt(?:\s+equivalent)?`), numberFirst(`salt`)},
			Assign:   func(r *domain.NutrientRecord, v float64) { r.Salt = &v },
		},
	}
}

// LabelExtractor pulls nutrient values out of raw label text. It is a
// best-effort heuristic: multi-column layouts and OCR noise are not
// disambiguated.
type LabelExtractor struct {
	rules []ExtractionRule
}

// NewLabelExtractor creates an extractor over rules. Nil rules means
// DefaultExtractionRules.
func NewLabelExtractor(rules []ExtractionRule) *LabelExtractor {
	if rules == nil {
		rules = DefaultExtractionRules()
	}
	return &LabelExtractor{rules: rules}
}

// Extract returns a partial record: fields without a match stay absent.
func (e *LabelExtractor) Extract(text string) domain.NutrientRecord {
	var record domain.NutrientRecord
	for _, rule := range e.rules {
		if v, ok := rule.find(text); ok {
			rule.Assign(&record, v)
		}
	}
	return record
}

func (r ExtractionRule) find(text string) (float64, bool) {
	for _, re := range r.Patterns {
		vi := re.SubexpIndex("value")
		if vi < 0 {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if r.excluded(text, m[0]) {
				continue
			}
			if v, ok := parseLabelNumber(text[m[2*vi]:m[2*vi+1]]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func (r ExtractionRule) excluded(text string, start int) bool {
	if len(r.Exclude) == 0 {
		return false
	}
	before := strings.ToLower(text[max(0, start-excludeWindow):start])
	for _, word := range r.Exclude {
		if strings.Contains(before, word) {
			return true
		}
	}
	return false
}

var thousandsGrouped = regexp.MustCompile(`^[1-9]\d{0,2}(?:,\d{3})+(?:\.\d+)?$`)

// parseLabelNumber accepts "12.5", "12,5" and "2,000".
func parseLabelNumber(s string) (float64, bool) {
	if thousandsGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
