package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/calendar"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/logging"
	"interview-scheduler/internal/scheduler"
)

func statusFor(err error) int {
	var verr *availability.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, scheduler.ErrDuplicateCandidate),
		errors.Is(err, calendar.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, availability.ErrForbidden), errors.Is(err, interview.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, availability.ErrNotFound),
		errors.Is(err, availability.ErrNoSelection),
		errors.Is(err, interview.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduler.ErrNoActiveAvailability),
		errors.Is(err, calendar.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.With(c.Request.Context(), a.Logger).Error("Request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var verr *availability.ValidationError
	if errors.As(err, &verr) {
		body["details"] = verr.Problems
	}
	c.JSON(status, body)
}

// writeBindError reports a malformed or invalid request body.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": details})
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "weekday":
		return field + " must name a weekday"
	case "datetime":
		return field + " must match " + fe.Param()
	default:
		return field + " failed " + fe.Tag() + " " + fe.Param()
	}
}
