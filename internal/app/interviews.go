package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/scheduler"
)

const (
	defaultPreviewLimit = 10
	maxPreviewLimit     = 500
)

type scheduleRequest struct {
	CandidateIDs []int64 `json:"candidate_ids" binding:"required_without=JobID,dive,gt=0"`
	JobID        int64   `json:"job_id" binding:"required_without=CandidateIDs,gte=0"`
	Summary      string  `json:"summary" binding:"max=200"`
	Description  string  `json:"description" binding:"max=4000"`
}

// POST /api/interviews/schedule
// Every submitted candidate appears in exactly one of scheduled, failed or
// unscheduled_no_capacity.
func (a *App) ScheduleInterviewsHandler(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := a.Scheduler.ScheduleBatch(c.Request.Context(), scheduler.BatchRequest{
		OwnerID:      OwnerID(c),
		CandidateIDs: req.CandidateIDs,
		JobID:        req.JobID,
		Summary:      req.Summary,
		Description:  req.Description,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/slots?limit=N
// Previews the next free slots of the selected profile.
func (a *App) PreviewSlotsHandler(c *gin.Context) {
	limit := defaultPreviewLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPreviewLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxPreviewLimit)})
			return
		}
		limit = n
	}

	profile, slots, err := a.Scheduler.Preview(c.Request.Context(), OwnerID(c), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile_id": profile.ID,
		"slots":      slots,
		"count":      len(slots),
	})
}

// GET /api/bookings
func (a *App) ListBookingsHandler(c *gin.Context) {
	bookings, err := a.Scheduler.Bookings(c.Request.Context(), OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
