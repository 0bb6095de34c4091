package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

// ingredientDelimiterRegex splits an ingredient list into entries
var ingredientDelimiterRegex = regexp.MustCompile(`[,;\n]`)

// IngredientNormalizer folds free-text ingredient lists into canonical
// ingredient terms. It is immutable and safe for concurrent use.
type IngredientNormalizer struct {
	synonyms []synonymRule
}

// synonymRule is one variant as a word sequence and its replacement.
type synonymRule struct {
	words     []string
	canonical string
}

// NewIngredientNormalizer compiles a synonym table into an ordered matcher.
//
// Variants are tried longest first, so "high fructose corn syrup" wins over
// "fructose" and "corn syrup" when they overlap. Replacement happens in one
// left-to-right pass over whole words: a canonical term is never rewritten
// again by a later variant. Variants of equal length keep their table order.
func NewIngredientNormalizer(table []policy.Synonym) *IngredientNormalizer {
	n := &IngredientNormalizer{synonyms: make([]synonymRule, 0, len(table))}

	seen := make(map[string]bool, len(table))
	for _, s := range table {
		variant := cleanIngredient(s.Variant)
		if variant == "" || seen[variant] {
			continue
		}
		seen[variant] = true
		n.synonyms = append(n.synonyms, synonymRule{
			words:     strings.Fields(variant),
			canonical: cleanIngredient(s.Canonical),
		})
	}

	sort.SliceStable(n.synonyms, func(i, j int) bool {
		return ruleLen(n.synonyms[i]) > ruleLen(n.synonyms[j])
	})
	return n
}

func ruleLen(r synonymRule) int {
	size := len(r.words) - 1
	for _, w := range r.words {
		size += len(w)
	}
	return size
}

// Normalize splits text on commas, semicolons and newlines and returns the
// canonical term for every entry, without duplicates, in order of first
// appearance. Empty input yields an empty list.
func (n *IngredientNormalizer) Normalize(text string) []string {
	entries := ingredientDelimiterRegex.Split(text, -1)
	terms := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		term := n.NormalizeTerm(entry)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// NormalizeTerm canonicalizes a single ingredient entry.
func (n *IngredientNormalizer) NormalizeTerm(entry string) string {
	term := cleanIngredient(entry)
	if len(n.synonyms) == 0 || term == "" {
		return term
	}

	words := strings.Fields(term)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		rule, ok := n.matchAt(words, i)
		if !ok {
			out = append(out, words[i])
			i++
			continue
		}
		if rule.canonical != "" {
			out = append(out, rule.canonical)
		}
		i += len(rule.words)
	}
	return strings.Join(out, " ")
}

// matchAt returns the first rule whose words start at words[i].
func (n *IngredientNormalizer) matchAt(words []string, i int) (synonymRule, bool) {
	for _, rule := range n.synonyms {
		if len(rule.words) > len(words)-i {
			continue
		}
		matched := true
		for k, w := range rule.words {
			if words[i+k] != w {
				matched = false
				break
			}
		}
		if matched {
			return rule, true
		}
	}
	return synonymRule{}, false
}

// cleanIngredient lowercases s, drops every character that is not a letter,
// digit or space, and collapses whitespace. Accented letters are kept; input
// is composed to NFC first so a decomposed "e" plus accent stays one letter.
func cleanIngredient(s string) string {
	s = norm.NFC.String(strings.ToLower(s))

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
