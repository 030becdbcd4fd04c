package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

// CacheInspector reports how many results are memoized.
type CacheInspector interface {
	Len(ctx context.Context) (int, error)
}

// SummaryHandler wires the HTTP transport to the summarizer service.
type SummaryHandler struct {
	svc    summarizer.Service
	cache  CacheInspector
	logger *slog.Logger
}

// NewSummaryHandler constructs the root HTTP handler.
func NewSummaryHandler(svc summarizer.Service, cache CacheInspector, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		svc:    svc,
		cache:  cache,
		logger: logger.With("component", "http.handler"),
	}
}

// Summarize runs a full summarization of the posted text or source. The
// call blocks until every target size is done.
func (h *SummaryHandler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "summarize_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Plan returns the token budgets for a target size without calling a model.
func (h *SummaryHandler) Plan(c *gin.Context) {
	var req summarizer.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	params, err := h.svc.Plan(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "plan_failed"))
		return
	}

	c.JSON(http.StatusOK, params)
}

// CacheStats reports the number of memoized entries.
func (h *SummaryHandler) CacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"entries": 0})
		return
	}
	n, err := h.cache.Len(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, summarizer.CodeCache, "cache unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": n})
}

// Health answers liveness probes.
func (h *SummaryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
