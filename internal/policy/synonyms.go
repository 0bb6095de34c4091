package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

// Synonym folds Variant into the canonical ingredient term Canonical.
type Synonym struct {
	Variant   string `yaml:"variant" json:"variant"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

type synonymFile struct {
	Synonyms []Synonym `yaml:"synonyms"`
}

var defaultSynonyms = sync.OnceValues(func() ([]Synonym, error) {
	return ParseSynonymsYAML(defaultSynonymsYAML)
})

// DefaultSynonyms returns the built-in synonym table in file order.
func DefaultSynonyms() ([]Synonym, error) {
	table, err := defaultSynonyms()
	if err != nil {
		return nil, err
	}
	out := make([]Synonym, len(table))
	copy(out, table)
	return out, nil
}

// LoadSynonymsFile reads a synonym table from path, or returns
// DefaultSynonyms when path is empty.
func LoadSynonymsFile(path string) ([]Synonym, error) {
	if path == "" {
		return DefaultSynonyms()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	return ParseSynonymsYAML(content)
}

// ParseSynonymsYAML validates and decodes a synonym table. Variants and
// canonical terms are lowercased and trimmed; a variant listed twice is an error.
func ParseSynonymsYAML(data []byte) ([]Synonym, error) {
	if err := validateDocument(synonymsSchema, data); err != nil {
		return nil, err
	}

	var f synonymFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse synonyms yaml: %v", domain.ErrInvalidPolicy, err)
	}

	seen := make(map[string]bool, len(f.Synonyms))
	table := make([]Synonym, 0, len(f.Synonyms))
	for _, s := range f.Synonyms {
		s.Variant = strings.ToLower(strings.Join(strings.Fields(s.Variant), " "))
		s.Canonical = strings.ToLower(strings.Join(strings.Fields(s.Canonical), " "))
		if s.Variant == "" || s.Canonical == "" {
			return nil, fmt.Errorf("%w: empty synonym entry", domain.ErrInvalidPolicy)
		}
		if seen[s.Variant] {
			return nil, fmt.Errorf("%w: duplicate synonym %q", domain.ErrInvalidPolicy, s.Variant)
		}
		seen[s.Variant] = true
		table = append(table, s)
	}
	return table, nil
}
