package api

import (
	"errors"
	"net/http"

	"transaction-service/internal/models"
	"transaction-service/internal/query"
	"transaction-service/internal/store"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error, message string) {
	var (
		validationErr *models.ValidationError
		paramErr      *query.ParamError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": validationErr.Fields,
		})
	case errors.As(err, &paramErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameter",
			"details": paramErr.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Transaction not found",
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	}
}

func badBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "Request body too large",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
