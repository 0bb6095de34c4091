// Package bootstrap wires configuration into a ready analysis service. It is
// shared by the HTTP server and the command line tool.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/TVimala/Packaged-Food-Rating-App/config"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/infrastructure/cache"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/infrastructure/ocr"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/infrastructure/openfoodfacts"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/usecase"
)

// Runtime bundles the analysis service with the resources it owns.
type Runtime struct {
	Service *usecase.AnalysisService
	Policy  *policy.Policy
	cache   *cache.MemoryCache
}

// Close releases background resources.
func (r *Runtime) Close() {
	r.cache.Close()
}

// LoadScoring returns the configured policy and synonym table, falling
// back to the embedded defaults for empty paths.
func LoadScoring(cfg config.ScoringConfig) (*policy.Policy, []policy.Synonym, error) {
	p, err := policy.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading scoring policy: %w", err)
	}
	synonyms, err := policy.LoadSynonymsFile(cfg.SynonymsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading synonym table: %w", err)
	}
	return p, synonyms, nil
}

// New builds the analysis service and its dependencies from cfg.
func New(cfg *config.Config) (*Runtime, error) {
	log := logging.New("bootstrap")

	p, synonyms, err := LoadScoring(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	log.Info("scoring policy loaded", "version", p.Version, "digest", p.Digest(), "synonyms", len(synonyms))

	memoryCache := cache.NewMemoryCache(cfg.Cache.MaxEntries)

	products := openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL:           cfg.OpenFoodFacts.BaseURL,
		UserAgent:         cfg.OpenFoodFacts.UserAgent,
		Timeout:           cfg.OpenFoodFacts.Timeout,
		RequestsPerMinute: cfg.OpenFoodFacts.RequestsPerMinute,
		MaxRetries:        cfg.OpenFoodFacts.MaxRetries,
	})

	// A nil extractor makes image analysis report ErrOCRUnavailable
	var extractor domain.TextExtractor
	if cfg.OCR.Endpoint != "" {
		extractor = ocr.NewClient(ocr.Config{
			Endpoint:          cfg.OCR.Endpoint,
			Timeout:           cfg.OCR.Timeout,
			MaxImageBytes:     cfg.OCR.MaxImageBytes,
			AllowedImageHosts: cfg.OCR.AllowedImageHosts,
		})
	}
	log.Info("clients configured",
		"openfoodfacts", cfg.OpenFoodFacts.BaseURL,
		slog.Bool("ocr", extractor != nil),
		"cache_ttl", cfg.Cache.TTL)

	service := usecase.NewAnalysisService(
		memoryCache,
		products,
		extractor,
		usecase.NewPipeline(p, synonyms),
		usecase.AnalysisServiceConfig{
			CacheTTL:               cfg.Cache.TTL,
			MinConfidenceThreshold: cfg.Analysis.MinConfidence,
			SearchPageSize:         cfg.Analysis.SearchPageSize,
			BatchConcurrency:       cfg.Analysis.BatchConcurrency,
			MaxBatchSize:           cfg.Analysis.MaxBatchSize,
		},
	)

	return &Runtime{Service: service, Policy: p, cache: memoryCache}, nil
}
