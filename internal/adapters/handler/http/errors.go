package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/gin-gonic/gin"
)

var validationErrors = []error{
	domain.ErrGoalNameEmpty,
	domain.ErrGoalNameTooLong,
	domain.ErrGoalDescTooLong,
	domain.ErrGoalInvalidOwnerID,
	domain.ErrInvalidGoalType,
	domain.ErrTargetRequired,
	domain.ErrTargetNotAllowed,
	domain.ErrInvalidTarget,
	domain.ErrInvalidTimeframe,
	domain.ErrInvalidTimezone,
	domain.ErrInvalidPrivacy,
	domain.ErrInvalidStatus,
	domain.ErrInvalidStreakPolicy,
	domain.ErrInvalidMilestone,
	domain.ErrInvalidLog,
	domain.ErrNoteTooLong,
	domain.ErrNegativeLog,
	domain.ErrLogDateEmpty,
	domain.ErrInvalidDateRange,
	domain.ErrInvalidBucket,
	domain.ErrInvalidMonth,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrDisplayNameEmpty,
	domain.ErrDisplayNameTooLong,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func handleError(c *gin.Context, err error) {
	switch {
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})

	case errors.Is(err, domain.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrLogNotFound),
		errors.Is(err, domain.ErrCycleNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrReferenceMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrGoalConflict) || errors.Is(err, domain.ErrLogConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})

	case errors.Is(err, domain.ErrCycleAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "cycle already closed"})

	case errors.Is(err, domain.ErrGoalArchived),
		errors.Is(err, domain.ErrCycleNotSupported),
		errors.Is(err, domain.ErrNoFinishedCycle):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}

func userContextMissing(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
}
