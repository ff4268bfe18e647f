package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"interview-scheduler/internal/scheduler"
)

var (
	ErrNotConfigured = errors.New("google calendar not configured")
	ErrNotConnected  = errors.New("google account not connected")
)

// namespace for deriving calendar event ids from idempotency keys
var eventNamespace = uuid.MustParse("6f1b7c9e-3f1a-4f7e-9a43-2d1c5b8e0a11")

// Config holds OAuth2 client settings and the target calendar.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CalendarID   string
	// StateSecret signs OAuth state; ClientSecret is used when empty.
	StateSecret string
	Location    *time.Location
}

func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// StoredToken is a recruiter's Google grant.
type StoredToken struct {
	OwnerID   string
	Email     string
	Token     *oauth2.Token
	UpdatedAt time.Time
}

type TokenStore interface {
	// Token returns ErrNotConnected when the owner has no stored grant.
	Token(ctx context.Context, ownerID string) (StoredToken, error)
	SaveToken(ctx context.Context, t StoredToken) error
}

// CalendarEvent represents a Google Calendar event
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MeetLink    string    `json:"meet_link,omitempty"`
	Status      string    `json:"status"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Google books interviews on a recruiter's Google Calendar with a Meet link.
type Google struct {
	oauth       *oauth2.Config
	tokens      TokenStore
	calendarID  string
	stateSecret []byte
	loc         *time.Location
	clientOpts  []option.ClientOption
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Google)

// WithClientOptions appends options to every API client, e.g. a test endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(g *Google) { g.clientOpts = append(g.clientOpts, opts...) }
}

func NewGoogle(cfg Config, tokens TokenStore, logger *zap.Logger, opts ...Option) (*Google, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	secret := cfg.StateSecret
	if secret == "" {
		secret = cfg.ClientSecret
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	g := &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"openid",
				googleoauth2.UserinfoEmailScope,
				gcal.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		},
		tokens:      tokens,
		calendarID:  calendarID,
		stateSecret: []byte(secret),
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// tokenSource refreshes the owner's grant when needed and stores the refreshed token.
func (g *Google) tokenSource(ctx context.Context, ownerID string) (oauth2.TokenSource, error) {
	st, err := g.tokens.Token(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	tok, err := g.oauth.TokenSource(ctx, st.Token).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh google token: %w", err)
	}
	if tok.AccessToken != st.Token.AccessToken {
		if tok.RefreshToken == "" {
			tok.RefreshToken = st.Token.RefreshToken
		}
		st.Token = tok
		st.UpdatedAt = g.now().UTC()
		if err := g.tokens.SaveToken(ctx, st); err != nil {
			g.logger.Warn("Failed to store refreshed google token", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}
	return oauth2.StaticTokenSource(tok), nil
}

func (g *Google) service(ctx context.Context, ownerID string) (*gcal.Service, error) {
	ts, err := g.tokenSource(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, g.clientOpts...)
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

// CreateEvent inserts the interview with a Meet conference and invites the
// candidate. Retrying the same idempotency key returns the existing event.
func (g *Google) CreateEvent(ctx context.Context, req scheduler.EventRequest) (scheduler.Event, error) {
	srv, err := g.service(ctx, req.OwnerID)
	if err != nil {
		return scheduler.Event{}, err
	}

	ev := buildEvent(req, g.loc)
	created, err := srv.Events.Insert(g.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if isConflict(err) && ev.Id != "" {
		created, err = srv.Events.Get(g.calendarID, ev.Id).Context(ctx).Do()
	}
	if err != nil {
		return scheduler.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return scheduler.Event{ID: created.Id, JoinLink: joinLink(created)}, nil
}

// CancelEvent deletes the event and emails the attendees. An event that is
// already gone counts as cancelled.
func (g *Google) CancelEvent(ctx context.Context, ownerID, eventID string) error {
	srv, err := g.service(ctx, ownerID)
	if err != nil {
		return err
	}
	err = srv.Events.Delete(g.calendarID, eventID).SendUpdates("all").Context(ctx).Do()
	if isGone(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func buildEvent(req scheduler.EventRequest, loc *time.Location) *gcal.Event {
	ev := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.In(loc).Format(time.RFC3339), TimeZone: loc.String()},
		End:         &gcal.EventDateTime{DateTime: req.End.In(loc).Format(time.RFC3339), TimeZone: loc.String()},
		Attendees:   []*gcal.EventAttendee{{Email: req.CandidateEmail}},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	if req.IdempotencyKey != "" {
		ev.Id = eventID(req.IdempotencyKey)
	}
	return ev
}

// eventID maps a key to a valid Google event id (lowercase hex is within base32hex).
func eventID(key string) string {
	return strings.ReplaceAll(uuid.NewSHA1(eventNamespace, []byte(key)).String(), "-", "")
}

func joinLink(ev *gcal.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	return ""
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}

// ListEvents returns the owner's events between from and to, ordered by start.
func (g *Google) ListEvents(ctx context.Context, ownerID string, from, to time.Time) ([]CalendarEvent, error) {
	srv, err := g.service(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	call := srv.Events.List(g.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(ctx)
	if !from.IsZero() {
		call = call.TimeMin(from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		call = call.TimeMax(to.Format(time.RFC3339))
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		e := CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			MeetLink:    joinLink(item),
			Status:      item.Status,
			StartTime:   parseEventTime(item.Start),
			EndTime:     parseEventTime(item.End),
		}
		for _, a := range item.Attendees {
			e.Attendees = append(e.Attendees, a.Email)
		}
		out = append(out, e)
	}
	return out, nil
}

// CalendarInfo is one entry of the owner's calendar list.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role"`
}

func (g *Google) ListCalendars(ctx context.Context, ownerID string) ([]CalendarInfo, error) {
	srv, err := g.service(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	out := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}
	return out, nil
}

func parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	} else if dt.Date != "" {
		if t, err := time.Parse(time.DateOnly, dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Disabled stands in when Google credentials are absent; every call fails.
type Disabled struct{}

func (Disabled) CreateEvent(context.Context, scheduler.EventRequest) (scheduler.Event, error) {
	return scheduler.Event{}, ErrNotConfigured
}

func (Disabled) CancelEvent(context.Context, string, string) error { return ErrNotConfigured }
