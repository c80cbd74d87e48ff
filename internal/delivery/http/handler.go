package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/usecase"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// jobIDHeader carries the progress job id of an analysis back to the client
const jobIDHeader = "X-Job-ID"

// AllergenAnalyzer runs allergen analyses
type AllergenAnalyzer interface {
	Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResponse, error)
}

// CaseFinder looks up regulatory cases and their audit history
type CaseFinder interface {
	FindCases(ctx context.Context, req *domain.CaseRequest) (*domain.CaseResponse, error)
	History(ctx context.Context, recipeID int64) ([]domain.NonconformingCase, error)
}

// ProgressSource streams analysis progress
type ProgressSource interface {
	Subscribe(jobID string) (<-chan usecase.ProgressSnapshot, func())
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	allergens AllergenAnalyzer
	cases     CaseFinder
	progress  ProgressSource
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil dependency makes its endpoints answer 503.
func NewHandler(allergens AllergenAnalyzer, cases CaseFinder, progress ProgressSource, logger *zap.Logger) *Handler {
	return &Handler{
		allergens: allergens,
		cases:     cases,
		progress:  progress,
		logger:    logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "allerscan-backend",
		"version": "1.0.0",
	})
}

// AnalyzeAllergens handles allergen analysis requests.
// The job id defaults to the request id so a client can follow progress without choosing one.
func (h *Handler) AnalyzeAllergens(c *gin.Context) {
	if h.allergens == nil {
		h.unavailable(c)
		return
	}

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		req.JobID = requestid.Get(c)
	}
	c.Header(jobIDHeader, req.JobID)

	resp, err := h.allergens.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SearchCases handles regulatory case lookups
func (h *Handler) SearchCases(c *gin.Context) {
	if h.cases == nil {
		h.unavailable(c)
		return
	}

	var req domain.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	resp, err := h.cases.FindCases(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CaseHistory returns the cases persisted for a recipe
func (h *Handler) CaseHistory(c *gin.Context) {
	if h.cases == nil {
		h.unavailable(c)
		return
	}

	recipeID, err := strconv.ParseInt(c.Param("recipeId"), 10, 64)
	if err != nil || recipeID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid recipe id"})
		return
	}

	history, err := h.cases.History(c.Request.Context(), recipeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipeId": recipeID, "cases": history})
}

// StreamProgress streams "progress" server-sent events for a job until it completes or fails.
// Subscribing before the job starts yields a queued snapshot first.
func (h *Handler) StreamProgress(c *gin.Context) {
	if h.progress == nil {
		h.unavailable(c)
		return
	}

	jobID := strings.TrimSpace(c.Param("jobId"))
	if jobID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "job id is required"})
		return
	}

	updates, cancel := h.progress.Subscribe(jobID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("progress", snapshot)
			return !snapshot.Final()
		}
	})
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled", Message: err.Error()})
	case errors.Is(err, domain.ErrRegistryFailure), errors.Is(err, domain.ErrRegistryMalformed), errors.Is(err, domain.ErrAIFailure):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream failure", Message: err.Error()})
	default:
		h.logger.Error("[HTTP] Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func (h *Handler) unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service not configured"})
}
