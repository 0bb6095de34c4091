package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

// barcodeRegex accepts GTIN-8 through GTIN-14 codes
var barcodeRegex = regexp.MustCompile(`^[0-9]{8,14}$`)

// Defaults applied by NewAnalysisService for zero config fields
const (
	defaultCacheTTL         = 24 * time.Hour
	defaultSearchPageSize   = 20
	defaultSearchLimit      = 5
	defaultBatchConcurrency = 4
	defaultMaxBatchSize     = 50
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	CacheTTL               time.Duration
	MinConfidenceThreshold float64
	SearchPageSize         int
	BatchConcurrency       int
	MaxBatchSize           int
}

// BatchItem is the outcome for one barcode of a batch analysis. Exactly one
// of Analysis and Error is set.
type BatchItem struct {
	Barcode  string           `json:"barcode"`
	Analysis *domain.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// AnalysisService resolves products from the product database or label
// text and runs them through the scoring pipeline.
type AnalysisService struct {
	cache            domain.CacheRepository
	products         domain.ProductSource
	ocr              domain.TextExtractor
	pipeline         *Pipeline
	matcher          *MatchingService
	preprocessor     *QueryPreprocessor
	cacheTTL         time.Duration
	searchPageSize   int
	batchConcurrency int
	maxBatchSize     int
	logger           *slog.Logger
}

// NewAnalysisService creates a new analysis service with dependencies.
// ocr may be nil, in which case image analysis reports ErrOCRUnavailable.
func NewAnalysisService(
	cache domain.CacheRepository,
	products domain.ProductSource,
	ocr domain.TextExtractor,
	pipeline *Pipeline,
	config AnalysisServiceConfig,
) *AnalysisService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	pageSize := config.SearchPageSize
	if pageSize <= 0 {
		pageSize = defaultSearchPageSize
	}
	concurrency := config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	maxBatch := config.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}

	return &AnalysisService{
		cache:    cache,
		products: products,
		ocr:      ocr,
		pipeline: pipeline,
		matcher: NewMatchingService(MatchConfig{
			MinConfidenceThreshold: config.MinConfidenceThreshold,
			EnableFuzzyMatching:    true,
		}),
		preprocessor:     NewQueryPreprocessor(),
		cacheTTL:         cacheTTL,
		searchPageSize:   pageSize,
		batchConcurrency: concurrency,
		maxBatchSize:     maxBatch,
		logger:           logging.New("analysis"),
	}
}

// Policy returns the scoring policy in use.
func (s *AnalysisService) Policy() *policy.Policy {
	return s.pipeline.Engine().Policy()
}

// AnalyzeBarcode looks a product up by barcode and scores it.
// Flow: check cache -> query product database -> cache -> score
func (s *AnalysisService) AnalyzeBarcode(ctx context.Context, barcode string) (*domain.Analysis, error) {
	barcode = strings.TrimSpace(barcode)
	if !barcodeRegex.MatchString(barcode) {
		return nil, fmt.Errorf("%w: barcode must be 8 to 14 digits", domain.ErrInvalidRequest)
	}

	product, err := s.getProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	analysis := s.pipeline.AnalyzeProduct(product, domain.SourceOpenFoodFacts)
	s.logger.Info("product scored",
		"barcode", barcode, "score", analysis.Result.Score, "grade", analysis.Result.Grade,
		"present", analysis.Completeness.Present)
	return &analysis, nil
}

// SearchProducts searches the product database by name and ranks the hits
// against the query. At most limit candidates are returned. A
// low-confidence ranking is returned together with ErrLowConfidence.
func (s *AnalysisService) SearchProducts(ctx context.Context, name, brand string, limit int) ([]domain.ProductCandidate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := s.preprocessor.PreprocessQuery(name, brand)
	if query == "" {
		return nil, fmt.Errorf("%w: query has no searchable terms", domain.ErrInvalidRequest)
	}

	products, err := s.products.SearchProducts(ctx, query, s.searchPageSize)
	if err != nil {
		return nil, s.upstreamError(err)
	}

	candidates, err := s.matcher.RankCandidates(ctx, name, brand, products)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if err != nil && !errors.Is(err, domain.ErrLowConfidence) {
		return nil, err
	}

	s.logger.Info("search ranked", "query", query, "hits", len(products), "returned", len(candidates))
	return candidates, err
}

// AnalyzeRecord scores a client-supplied product record.
func (s *AnalysisService) AnalyzeRecord(product *domain.Product) *domain.Analysis {
	analysis := s.pipeline.AnalyzeProduct(product, domain.SourceRecord)
	return &analysis
}

// AnalyzeText scores raw label text. When no nutrient could be read the
// neutral analysis is returned together with ErrNoNutritionData.
func (s *AnalysisService) AnalyzeText(ctx context.Context, text string) (*domain.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}

	analysis, err := s.pipeline.AnalyzeText(text)
	if err != nil {
		s.logger.Info("no nutrients extracted from label text", "chars", len(text))
		return &analysis, err
	}
	return &analysis, nil
}

// AnalyzeImage runs OCR on a label photo and scores the resulting text.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, imageURL string) (*domain.Analysis, error) {
	if s.ocr == nil {
		return nil, domain.ErrOCRUnavailable
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, fmt.Errorf("%w: imageUrl is required", domain.ErrInvalidRequest)
	}

	text, err := s.ocr.ExtractText(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domain.ErrNoNutritionData
	}
	return s.AnalyzeText(ctx, text)
}

// AnalyzeBatch scores several barcodes concurrently. Per-barcode failures
// are reported in the matching item; results keep the input order.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, barcodes []string) ([]BatchItem, error) {
	if len(barcodes) == 0 {
		return nil, fmt.Errorf("%w: at least one barcode is required", domain.ErrInvalidRequest)
	}
	if len(barcodes) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: at most %d barcodes per batch", domain.ErrInvalidRequest, s.maxBatchSize)
	}

	items := make([]BatchItem, len(barcodes))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, barcode := range barcodes {
		g.Go(func() error {
			items[i].Barcode = barcode
			analysis, err := s.AnalyzeBarcode(gCtx, barcode)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Analysis = analysis
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ScoreNutrients scores an already canonical nutrient record.
func (s *AnalysisService) ScoreNutrients(n domain.NutrientRecord) domain.ScoreResult {
	return s.pipeline.ScoreNutrients(n)
}

// NormalizeIngredients folds a free-text ingredient list into canonical terms.
func (s *AnalysisService) NormalizeIngredients(text string) []string {
	return s.pipeline.Ingredients().Normalize(text)
}

// getProduct returns the product for barcode, from cache when possible.
func (s *AnalysisService) getProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	key := productCacheKey(barcode)

	if product, err := s.getFromCache(ctx, key); err == nil {
		s.logger.Debug("cache hit", "key", key)
		return product, nil
	}

	product, err := s.products.GetProduct(ctx, barcode)
	if err != nil {
		return nil, s.upstreamError(err)
	}

	if err := s.setInCache(ctx, key, product); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return product, nil
}

// upstreamError keeps known sentinels and wraps everything else as an
// upstream failure.
func (s *AnalysisService) upstreamError(err error) error {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUpstreamFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
}

// productCacheKey creates the cache key for a barcode lookup.
// Format: "product:{barcode}"
func productCacheKey(barcode string) string {
	return "product:" + barcode
}

// getFromCache retrieves a product from cache
func (s *AnalysisService) getFromCache(ctx context.Context, key string) (*domain.Product, error) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &product, nil
}

// setInCache stores a product in cache
func (s *AnalysisService) setInCache(ctx context.Context, key string, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
