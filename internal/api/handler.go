package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"transaction-service/internal/cache"
	"transaction-service/internal/models"
	"transaction-service/internal/query"
	"transaction-service/internal/service"
	"transaction-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Cache header values
const (
	cacheHeader = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
)

// Handler contains HTTP handlers
type Handler struct {
	transactions *service.TransactionService
	cache        *cache.GenerationCache
}

// NewHandler creates a new HTTP handler
func NewHandler(transactions *service.TransactionService, c cache.Cache) *Handler {
	return &Handler{
		transactions: transactions,
		cache:        cache.WithGenerations(c),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(tracingMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(corsMiddleware())
	router.Use(bodyLimit(maxBodyBytes))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tx := router.Group("/api/transactions")
	{
		tx.GET("", h.listTransactions)
		tx.GET("/options", h.filterOptions)
		tx.GET("/stats", h.stats)
		tx.POST("", h.createTransaction)
		tx.PUT("/:id", h.updateTransaction)
		tx.DELETE("/:id", h.deleteTransaction)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the store answers a ping
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.transactions.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listTransactions handles the filtered, paginated list
func (h *Handler) listTransactions(c *gin.Context) {
	params := c.Request.URL.Query()
	key := cache.QueryKey(cache.NamespaceTransactions, params, query.MultiValueParams...)

	h.serveCached(c, key, cache.ListTTL, "Failed to fetch transactions", func(ctx context.Context) (any, error) {
		return h.transactions.List(ctx, params)
	})
}

// filterOptions handles the dropdown values request
func (h *Handler) filterOptions(c *gin.Context) {
	h.serveCached(c, cache.KeyFilterOptions, cache.FilterOptionsTTL, "Failed to fetch filter options", func(ctx context.Context) (any, error) {
		return h.transactions.FilterOptions(ctx)
	})
}

// stats handles the aggregate totals request
func (h *Handler) stats(c *gin.Context) {
	h.serveCached(c, cache.KeyStats, cache.StatsTTL, "Failed to fetch stats", func(ctx context.Context) (any, error) {
		return h.transactions.Stats(ctx)
	})
}

// createTransaction handles transaction creation
func (h *Handler) createTransaction(c *gin.Context) {
	var input models.TransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	t, err := h.transactions.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create transaction")
		return
	}

	h.flush(c.Request.Context())
	c.JSON(http.StatusCreated, t)
}

// updateTransaction handles partial updates
func (h *Handler) updateTransaction(c *gin.Context) {
	var patch models.TransactionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badBody(c, err)
		return
	}

	t, err := h.transactions.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err, "Failed to update transaction")
		return
	}

	h.flush(c.Request.Context())
	c.JSON(http.StatusOK, t)
}

// deleteTransaction handles deletion
func (h *Handler) deleteTransaction(c *gin.Context) {
	t, err := h.transactions.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to delete transaction")
		return
	}

	h.flush(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":     "Transaction deleted successfully",
		"transaction": t,
	})
}

// serveCached answers from the cache when a live entry exists, otherwise
// loads the payload, stores it under key and answers with it. Cache failures
// are logged and treated as a miss. A payload whose load overlapped a flush is
// served but not stored.
func (h *Handler) serveCached(c *gin.Context, key string, ttl time.Duration, failure string, load func(context.Context) (any, error)) {
	ctx := c.Request.Context()
	logger := util.LoggerFrom(ctx)

	cached, found, err := h.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		util.CacheLookupsTotal.WithLabelValues("hit").Inc()
		c.Header(cacheHeader, cacheHit)
		c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", cached)
		return
	}
	util.CacheLookupsTotal.WithLabelValues("miss").Inc()

	generation := h.cache.Generation()
	value, err := load(ctx)
	if err != nil {
		respondError(c, err, failure)
		return
	}

	body, err := json.Marshal(value)
	if err != nil {
		respondError(c, err, failure)
		return
	}

	stored, err := h.cache.SetIfGeneration(ctx, generation, key, body, ttl)
	if err != nil {
		logger.Warn("Cache store failed", zap.String("key", key), zap.Error(err))
	} else if !stored {
		logger.Debug("Cache flushed during load, not storing", zap.String("key", key))
	}

	c.Header(cacheHeader, cacheMiss)
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", body)
}

// flush drops every cached response after a successful mutation
func (h *Handler) flush(ctx context.Context) {
	if err := h.cache.Flush(ctx); err != nil {
		util.LoggerFrom(ctx).Error("Cache flush failed", zap.Error(err))
		return
	}
	util.CacheFlushesTotal.Inc()
}
