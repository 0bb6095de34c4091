// Package policy holds the scoring thresholds and the ingredient synonym
// table. Both are immutable data: loaded once, validated against a JSON
// schema, then shared read-only by every request.
package policy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/gowebpki/jcs"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Tier awards Points to a value strictly greater than Above.
type Tier struct {
	Above  float64 `yaml:"above" json:"above"`
	Points int     `yaml:"points" json:"points"`
}

// Tiers is a threshold ladder sorted by descending Above.
type Tiers []Tier

// Match returns the first tier whose threshold v exceeds. Values at or
// below the lowest threshold match nothing.
func (t Tiers) Match(v float64) (Tier, bool) {
	for _, tier := range t {
		if v > tier.Above {
			return tier, true
		}
	}
	return Tier{}, false
}

// TieredRule is a category scored by a single threshold ladder.
type TieredRule struct {
	Tiers Tiers `yaml:"tiers" json:"tiers"`
}

// SodiumRule scores sodium derived from salt.
type SodiumRule struct {
	MgPerGramSalt float64 `yaml:"mg_per_g_salt" json:"mg_per_g_salt"`
	Tiers         Tiers   `yaml:"tiers" json:"tiers"`
}

// AddedSugarsRule is a linear penalty: one point per Step grams once the
// value exceeds Above, capped at MaxPoints.
type AddedSugarsRule struct {
	Above     float64 `yaml:"above" json:"above"`
	Step      float64 `yaml:"step" json:"step"`
	MaxPoints int     `yaml:"max_points" json:"max_points"`
	Citation  string  `yaml:"citation" json:"citation"`
}

// FlatRule adds a fixed number of points when its flag is set.
type FlatRule struct {
	Points   int    `yaml:"points" json:"points"`
	Citation string `yaml:"citation" json:"citation"`
}

// FruitVegTier awards Points to a produce percentage of at least AtLeast.
type FruitVegTier struct {
	AtLeast float64 `yaml:"at_least" json:"at_least"`
	Points  int     `yaml:"points" json:"points"`
	Label   string  `yaml:"label" json:"label"`
}

// Scale maps raw points onto 0-100: Base - (raw + Offset) * Factor.
type Scale struct {
	Base   float64 `yaml:"base" json:"base"`
	Offset float64 `yaml:"offset" json:"offset"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// Band names the qualitative category for scores >= MinScore.
type Band struct {
	MinScore int    `yaml:"min_score" json:"min_score"`
	Name     string `yaml:"name" json:"name"`
	Grade    string `yaml:"grade" json:"grade"`
}

// Policy is the complete set of scoring constants.
type Policy struct {
	Version        string          `yaml:"version" json:"version"`
	Energy         TieredRule      `yaml:"energy" json:"energy"`
	Sugars         TieredRule      `yaml:"sugars" json:"sugars"`
	AddedSugars    AddedSugarsRule `yaml:"added_sugars" json:"added_sugars"`
	SaturatedFat   TieredRule      `yaml:"saturated_fat" json:"saturated_fat"`
	Sodium         SodiumRule      `yaml:"sodium" json:"sodium"`
	UltraProcessed FlatRule        `yaml:"ultra_processed" json:"ultra_processed"`
	Fiber          TieredRule      `yaml:"fiber" json:"fiber"`
	Protein        TieredRule      `yaml:"protein" json:"protein"`
	FruitVeg       []FruitVegTier  `yaml:"fruit_veg" json:"fruit_veg"`
	Scale          Scale           `yaml:"scale" json:"scale"`
	Bands          []Band          `yaml:"bands" json:"bands"`

	digest string
}

// Digest returns the sha256 of the policy's RFC 8785 canonical JSON form.
// Two policies with the same constants always share a digest.
func (p *Policy) Digest() string {
	return p.digest
}

// BandFor returns the band containing score.
func (p *Policy) BandFor(score int) Band {
	for _, band := range p.Bands {
		if score >= band.MinScore {
			return band
		}
	}
	return p.Bands[len(p.Bands)-1]
}

var defaultPolicy = sync.OnceValues(func() (*Policy, error) {
	return ParsePolicyYAML(defaultPolicyYAML)
})

// Default returns the built-in policy. The returned value is shared and must
// not be modified.
func Default() (*Policy, error) {
	return defaultPolicy()
}

// LoadPolicyFile reads a policy from path, or returns Default when path is empty.
func LoadPolicyFile(path string) (*Policy, error) {
	if path == "" {
		return Default()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicyYAML(content)
}

// ParsePolicyYAML validates data against the policy schema and decodes it.
func ParsePolicyYAML(data []byte) (*Policy, error) {
	if err := validateDocument(policySchema, data); err != nil {
		return nil, err
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: parse policy yaml: %v", domain.ErrInvalidPolicy, err)
	}

	normalizePolicy(&p)
	if err := validatePolicy(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPolicy, err)
	}

	digest, err := policyDigest(&p)
	if err != nil {
		return nil, err
	}
	p.digest = digest
	return &p, nil
}

// normalizePolicy puts every ladder in descending order so that first-match
// scanning picks the highest tier.
func normalizePolicy(p *Policy) {
	for _, tiers := range []Tiers{p.Energy.Tiers, p.Sugars.Tiers, p.SaturatedFat.Tiers, p.Sodium.Tiers, p.Fiber.Tiers, p.Protein.Tiers} {
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Above > tiers[j].Above })
	}
	sort.SliceStable(p.FruitVeg, func(i, j int) bool { return p.FruitVeg[i].AtLeast > p.FruitVeg[j].AtLeast })
	sort.SliceStable(p.Bands, func(i, j int) bool { return p.Bands[i].MinScore > p.Bands[j].MinScore })
}

func validatePolicy(p *Policy) error {
	ladders := map[string]Tiers{
		"energy":        p.Energy.Tiers,
		"sugars":        p.Sugars.Tiers,
		"saturated_fat": p.SaturatedFat.Tiers,
		"sodium":        p.Sodium.Tiers,
		"fiber":         p.Fiber.Tiers,
		"protein":       p.Protein.Tiers,
	}
	for name, tiers := range ladders {
		for i := 1; i < len(tiers); i++ {
			if tiers[i].Above == tiers[i-1].Above {
				return fmt.Errorf("%s: duplicate threshold %v", name, tiers[i].Above)
			}
		}
	}
	if p.AddedSugars.Step <= 0 {
		return fmt.Errorf("added_sugars.step must be positive")
	}
	if p.Sodium.MgPerGramSalt <= 0 {
		return fmt.Errorf("sodium.mg_per_g_salt must be positive")
	}
	if p.Scale.Factor <= 0 {
		return fmt.Errorf("scale.factor must be positive")
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("at least one band is required")
	}
	if last := p.Bands[len(p.Bands)-1]; last.MinScore != 0 {
		return fmt.Errorf("lowest band must start at 0, got %d", last.MinScore)
	}
	return nil
}

func policyDigest(p *Policy) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize policy: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
