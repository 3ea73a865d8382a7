package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stylefit/models"
	"stylefit/services"
	"stylefit/utils"
)

// respondError maps service errors onto status codes and the {"error": ...} body.
func respondError(c *gin.Context, err error) {
	var inErr *utils.InputError
	var declined *services.PaymentDeclinedError

	switch {
	case errors.As(err, &inErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inErr.Error(), "field": inErr.Field})
	case errors.As(err, &declined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": declined.Error(), "order_id": declined.OrderID, "skip_offered": true})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrAnalysisInProgress),
		errors.Is(err, models.ErrResultsNotReady),
		errors.Is(err, models.ErrSkipNotOffered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrPremiumLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
