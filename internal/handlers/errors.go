package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
)

// respondError writes the error response of a failed service call.
func respondError(c *gin.Context, err error) {
	var notReady *models.ClaimNotReadyError
	if errors.As(err, &notReady) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success":   false,
			"message":   "Claim not ready yet",
			"remaining": notReady.Remaining.Milliseconds(),
		})
		return
	}

	status, message := errorStatus(err)
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrAlreadyClaimed):
		return http.StatusConflict, "Task already claimed"
	case errors.Is(err, models.ErrTaskClosed):
		return http.StatusConflict, "Task is closed"
	case errors.Is(err, models.ErrNoTasksAvailable):
		return http.StatusNotFound, "No tasks available"
	case errors.Is(err, models.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, models.ErrStoreUnavailable), errors.Is(err, models.ErrSchemaMismatch):
		return http.StatusServiceUnavailable, "Storage unavailable, try again later"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// bindOptionalJSON accepts an empty body and leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	// Chunked requests report an unknown length, so an empty one only shows up as EOF.
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
