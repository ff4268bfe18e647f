package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/availability"
)

type availabilityRequest struct {
	Days            []string `json:"days" binding:"required,min=1,dive,weekday"`
	StartTime       string   `json:"start_time" binding:"required"`
	EndTime         string   `json:"end_time" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,gt=0"`
	BreakMinutes    int      `json:"break_minutes" binding:"gte=0"`
	StartDate       string   `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate         string   `json:"end_date" binding:"required,datetime=2006-01-02"`
}

type availabilityPatchRequest struct {
	Days            []string `json:"days" binding:"omitempty,dive,weekday"`
	StartTime       *string  `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gt=0"`
	BreakMinutes    *int     `json:"break_minutes" binding:"omitempty,gte=0"`
	StartDate       *string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate         *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func parseDays(names []string) ([]availability.Day, error) {
	days := make([]availability.Day, 0, len(names))
	for _, n := range names {
		d, err := availability.ParseDay(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

func (r availabilityRequest) profile() (availability.Profile, error) {
	var (
		p    availability.Profile
		err  error
		errs []error
	)
	if p.Days, err = parseDays(r.Days); err != nil {
		errs = append(errs, err)
	}
	if p.StartTime, err = availability.ParseClock(r.StartTime); err != nil {
		errs = append(errs, err)
	}
	if p.EndTime, err = availability.ParseClock(r.EndTime); err != nil {
		errs = append(errs, err)
	}
	if p.StartDate, err = availability.ParseDate(r.StartDate); err != nil {
		errs = append(errs, err)
	}
	if p.EndDate, err = availability.ParseDate(r.EndDate); err != nil {
		errs = append(errs, err)
	}
	p.DurationMinutes = r.DurationMinutes
	p.BreakMinutes = r.BreakMinutes
	return p, errors.Join(errs...)
}

func (r availabilityPatchRequest) patch() (availability.Patch, error) {
	var (
		pt   availability.Patch
		errs []error
	)
	if r.Days != nil {
		days, err := parseDays(r.Days)
		if err != nil {
			errs = append(errs, err)
		}
		pt.Days = days
	}
	if r.StartTime != nil {
		c, err := availability.ParseClock(*r.StartTime)
		if err != nil {
			errs = append(errs, err)
		}
		pt.StartTime = &c
	}
	if r.EndTime != nil {
		c, err := availability.ParseClock(*r.EndTime)
		if err != nil {
			errs = append(errs, err)
		}
		pt.EndTime = &c
	}
	if r.StartDate != nil {
		d, err := availability.ParseDate(*r.StartDate)
		if err != nil {
			errs = append(errs, err)
		}
		pt.StartDate = &d
	}
	if r.EndDate != nil {
		d, err := availability.ParseDate(*r.EndDate)
		if err != nil {
			errs = append(errs, err)
		}
		pt.EndDate = &d
	}
	pt.DurationMinutes = r.DurationMinutes
	pt.BreakMinutes = r.BreakMinutes
	return pt, errors.Join(errs...)
}

func profileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid availability id"})
		return 0, false
	}
	return id, true
}

// POST /api/availability
func (a *App) CreateAvailabilityHandler(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := req.profile()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := a.Availability.CreateProfile(c.Request.Context(), OwnerID(c), p)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GET /api/availability
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	profiles, err := a.Availability.ListProfiles(c.Request.Context(), OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GET /api/availability/selected
func (a *App) SelectedAvailabilityHandler(c *gin.Context) {
	p, err := a.Availability.SelectedProfile(c.Request.Context(), OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/availability/:id
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	p, err := a.Availability.Profile(c.Request.Context(), OwnerID(c), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/availability/:id
// Only the fields present in the body change.
func (a *App) UpdateAvailabilityHandler(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	var req availabilityPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := a.Availability.UpdateProfile(c.Request.Context(), OwnerID(c), id, patch)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/availability/:id
func (a *App) DeleteAvailabilityHandler(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	if err := a.Availability.DeleteProfile(c.Request.Context(), OwnerID(c), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PUT /api/availability/:id/select
func (a *App) SelectAvailabilityHandler(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	p, err := a.Availability.SelectProfile(c.Request.Context(), OwnerID(c), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/availability/:id/deselect
func (a *App) DeselectAvailabilityHandler(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	p, err := a.Availability.DeselectProfile(c.Request.Context(), OwnerID(c), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
