// Package app is the HTTP surface of the scheduling service.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/calendar"
	"interview-scheduler/internal/logging"
	"interview-scheduler/internal/scheduler"
)

// CalendarAccounts manages recruiters' Google grants. *calendar.Google implements it.
type CalendarAccounts interface {
	AuthURL(ownerID string) (string, error)
	Complete(ctx context.Context, code, state string) (calendar.StoredToken, error)
	Connection(ctx context.Context, ownerID string) (calendar.StoredToken, bool, error)
	ListEvents(ctx context.Context, ownerID string, from, to time.Time) ([]calendar.CalendarEvent, error)
	ListCalendars(ctx context.Context, ownerID string) ([]calendar.CalendarInfo, error)
}

type App struct {
	Availability *availability.Service
	Scheduler    *scheduler.Scheduler
	// Accounts is nil when Google credentials are not configured.
	Accounts CalendarAccounts
	Auth     AuthConfig
	Logger   *zap.Logger
}

// Router builds the gin engine with every route registered.
func (a *App) Router() *gin.Engine {
	if err := registerValidators(); err != nil {
		a.Logger.Fatal("Failed to register request validators", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(a.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	api.Use(AuthMiddleware(a.Auth))
	{
		av := api.Group("/availability")
		{
			av.POST("", a.CreateAvailabilityHandler)
			av.GET("", a.ListAvailabilityHandler)
			av.GET("/selected", a.SelectedAvailabilityHandler)
			av.GET("/:id", a.GetAvailabilityHandler)
			av.PUT("/:id", a.UpdateAvailabilityHandler)
			av.DELETE("/:id", a.DeleteAvailabilityHandler)
			av.PUT("/:id/select", a.SelectAvailabilityHandler)
			av.PUT("/:id/deselect", a.DeselectAvailabilityHandler)
		}

		api.GET("/slots", a.PreviewSlotsHandler)
		api.POST("/interviews/schedule", a.ScheduleInterviewsHandler)
		api.GET("/bookings", a.ListBookingsHandler)

		cal := api.Group("/calendar")
		{
			cal.GET("/auth", a.GoogleAuthHandler)
			cal.GET("/status", a.GoogleStatusHandler)
			cal.GET("/events", a.GetGoogleCalendarEvents)
			cal.GET("/calendars", a.GetGoogleCalendarList)
		}
	}

	return router
}
