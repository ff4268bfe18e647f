package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *App) requireAccounts(c *gin.Context) bool {
	if a.Accounts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return false
	}
	return true
}

// GET /api/calendar/auth
// Starts the OAuth2 flow for the authenticated recruiter.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if !a.requireAccounts(c) {
		return
	}
	url, err := a.Accounts.AuthURL(OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": url})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if !a.requireAccounts(c) {
		return
	}
	if msg := c.Query("error"); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + msg})
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code and state required"})
		return
	}

	st, err := a.Accounts.Complete(c.Request.Context(), code, state)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Authorization successful",
		"owner_id": st.OwnerID,
		"email":    st.Email,
	})
}

// GET /api/calendar/status
func (a *App) GoogleStatusHandler(c *gin.Context) {
	if !a.requireAccounts(c) {
		return
	}
	st, connected, err := a.Accounts.Connection(c.Request.Context(), OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	body := gin.H{"connected": connected}
	if connected {
		body["email"] = st.Email
		body["updated_at"] = st.UpdatedAt
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/calendar/events?time_min=RFC3339&time_max=RFC3339
func (a *App) GetGoogleCalendarEvents(c *gin.Context) {
	if !a.requireAccounts(c) {
		return
	}
	var from, to time.Time
	if raw := c.Query("time_min"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_min"})
			return
		}
		from = t
	}
	if raw := c.Query("time_max"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_max"})
			return
		}
		to = t
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time_min must be before time_max"})
		return
	}

	events, err := a.Accounts.ListEvents(c.Request.Context(), OwnerID(c), from, to)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// GET /api/calendar/calendars
func (a *App) GetGoogleCalendarList(c *gin.Context) {
	if !a.requireAccounts(c) {
		return
	}
	calendars, err := a.Accounts.ListCalendars(c.Request.Context(), OwnerID(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}
