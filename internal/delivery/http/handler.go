package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/usecase"
)

// Service identity reported by the health check
const (
	ServiceName = "foodscore-api"
	Version     = "1.0.0"
)

const maxSearchLimit = 25

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *usecase.AnalysisService
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes every scoring
// endpoint answer 503.
func NewHandler(service *usecase.AnalysisService) *Handler {
	return &Handler{service: service, logger: logging.New("http")}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// recordRequest is a client-supplied product record
type recordRequest struct {
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	Brands          string         `json:"brands"`
	IngredientsText string         `json:"ingredients_text"`
	Nutriments      map[string]any `json:"nutriments"`
	NovaGroup       int            `json:"nova_group"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type imageRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

type batchRequest struct {
	Barcodes []string `json:"barcodes" binding:"required"`
}

// SearchResponse carries ranked search candidates
type SearchResponse struct {
	Query         string                    `json:"query"`
	Candidates    []domain.ProductCandidate `json:"candidates"`
	LowConfidence bool                      `json:"lowConfidence"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	}
	if h.service != nil {
		body["policyDigest"] = h.service.Policy().Digest()
	}
	c.JSON(http.StatusOK, body)
}

// GetProductScore scores a product looked up by barcode
func (h *Handler) GetProductScore(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	analysis, err := h.service.AnalyzeBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// SearchProducts ranks product database hits for a name query
func (h *Handler) SearchProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			h.respondError(c, domain.ErrInvalidRequest)
			return
		}
		limit = n
	}

	candidates, err := h.service.SearchProducts(c.Request.Context(), query, c.Query("brand"), limit)
	lowConfidence := errors.Is(err, domain.ErrLowConfidence)
	if err != nil && !lowConfidence {
		h.respondError(c, err)
		return
	}
	if candidates == nil {
		candidates = []domain.ProductCandidate{}
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:         query,
		Candidates:    candidates,
		LowConfidence: lowConfidence,
	})
}

// ScoreRecord scores a client-supplied product record
func (h *Handler) ScoreRecord(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	analysis := h.service.AnalyzeRecord(&domain.Product{
		Barcode:         req.Code,
		Name:            req.ProductName,
		Brands:          req.Brands,
		IngredientsText: req.IngredientsText,
		Nutriments:      req.Nutriments,
		NovaGroup:       req.NovaGroup,
	})
	c.JSON(http.StatusOK, analysis)
}

// ScoreText scores raw nutrition label text
func (h *Handler) ScoreText(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	analysis, err := h.service.AnalyzeText(c.Request.Context(), req.Text)
	h.respondAnalysis(c, analysis, err)
}

// ScoreImage runs OCR on a label image and scores the text
func (h *Handler) ScoreImage(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	analysis, err := h.service.AnalyzeImage(c.Request.Context(), req.ImageURL)
	h.respondAnalysis(c, analysis, err)
}

// ScoreBatch scores several barcodes in one request
func (h *Handler) ScoreBatch(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	items, err := h.service.AnalyzeBatch(c.Request.Context(), req.Barcodes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// ScoreNutrients scores an already canonical nutrient record
func (h *Handler) ScoreNutrients(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var record domain.NutrientRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.respondBindError(c, err)
		return
	}
	if err := record.Validate(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.ScoreNutrients(record))
}

// NormalizeIngredients folds an ingredient list into canonical terms
func (h *Handler) NormalizeIngredients(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": h.service.NormalizeIngredients(req.Text)})
}

// GetPolicy returns the active scoring policy and its digest
func (h *Handler) GetPolicy(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	p := h.service.Policy()
	c.JSON(http.StatusOK, gin.H{"digest": p.Digest(), "policy": p})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "analysis service not configured",
			Code:      "unavailable",
			RequestID: requestID(c),
		})
		return false
	}
	return true
}

// respondAnalysis writes an analysis. When no nutrient could be read the
// neutral analysis is still returned, with 422.
func (h *Handler) respondAnalysis(c *gin.Context, analysis *domain.Analysis, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, analysis)
	case errors.Is(err, domain.ErrNoNutritionData) && analysis != nil:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"code":      "no_nutrition_data",
			"requestId": requestID(c),
			"analysis":  analysis,
		})
	default:
		h.respondError(c, err)
	}
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request body: " + err.Error(),
		Code:      "invalid_request",
		RequestID: requestID(c),
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err, "request_id", requestID(c))
	}
	c.JSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: requestID(c),
	})
}

// statusForError maps domain errors onto HTTP status codes
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNoNutritionData):
		return http.StatusUnprocessableEntity, "no_nutrition_data"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway, "upstream_failure"
	case errors.Is(err, domain.ErrOCRUnavailable):
		return http.StatusServiceUnavailable, "ocr_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
