package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/lock"
	"interview-scheduler/internal/logging"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 15 * time.Second
	defaultSummary     = "Interview"
)

// ProfileSource resolves an owner's selected availability profile.
type ProfileSource interface {
	SelectedProfile(ctx context.Context, ownerID string) (availability.Profile, error)
}

// Scheduler assigns candidates to free slots of their recruiter's selected
// profile and books each pair on the recruiter's calendar.
type Scheduler struct {
	profiles    ProfileSource
	directory   interview.Directory
	tracker     *interview.Tracker
	bookings    BookingStore
	calendar    Calendar
	notifier    Notifier
	locks       lock.Locker
	loc         *time.Location
	concurrency int
	callTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Scheduler)

// WithLocation sets the zone slot clock times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithConcurrency bounds the number of calendar calls in flight per batch.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCallTimeout bounds each calendar call and its follow-up writes.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(profiles ProfileSource, directory interview.Directory, bookings BookingStore, cal Calendar, locks lock.Locker, logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		profiles:    profiles,
		directory:   directory,
		tracker:     interview.NewTracker(directory),
		bookings:    bookings,
		calendar:    cal,
		locks:       locks,
		loc:         time.UTC,
		concurrency: defaultConcurrency,
		callTimeout: defaultCallTimeout,
		now:         time.Now,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type pair struct {
	index     int
	candidate interview.Candidate
	slot      availability.Slot
}

type outcomeKind int

const (
	outcomeScheduled outcomeKind = iota + 1
	outcomeFailed
	outcomeNoCapacity
)

type outcome struct {
	kind      outcomeKind
	scheduled ScheduledCandidate
	slot      *availability.Slot
	err       error
}

// ScheduleBatch books the request's candidates into the owner's next free
// slots. Structural problems abort before any calendar call; per-candidate
// problems are reported in the result and never roll back other candidates.
func (s *Scheduler) ScheduleBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	log := logging.With(ctx, s.logger).With(zap.String("owner_id", req.OwnerID))

	unlock, err := s.locks.Lock(ctx, lock.OwnerKey(req.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("lock owner %s: %w", req.OwnerID, err)
	}
	defer unlock()

	// resolved under the lock so a concurrent delete or select is observed
	profile, err := s.profiles.SelectedProfile(ctx, req.OwnerID)
	if errors.Is(err, availability.ErrNoSelection) {
		return nil, ErrNoActiveAvailability
	}
	if err != nil {
		return nil, fmt.Errorf("resolve selected profile: %w", err)
	}

	candidates, err := s.resolveCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, len(candidates))
	eligible := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Status.InterviewScheduled {
			outcomes[i] = outcome{kind: outcomeFailed, err: interview.ErrAlreadyScheduled}
			continue
		}
		eligible = append(eligible, i)
	}

	booked, err := s.bookings.BookedKeys(ctx, req.OwnerID, profile.StartDate, profile.EndDate)
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}
	slots := availability.NextAvailable(profile, booked, len(eligible))

	pairs := make([]pair, 0, len(slots))
	for n, i := range eligible {
		if n >= len(slots) {
			outcomes[i] = outcome{kind: outcomeNoCapacity, err: &CapacityError{Requested: len(eligible), Available: len(slots)}}
			continue
		}
		pairs = append(pairs, pair{index: i, candidate: candidates[i], slot: slots[n]})
	}

	log.Info("Scheduling batch",
		zap.Int64("profile_id", profile.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("pairs", len(pairs)),
		zap.Int("concurrency", s.concurrency))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, p := range pairs {
		g.Go(func() error {
			outcomes[p.index] = s.book(ctx, log, profile, req, p)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{
		ProfileID:             profile.ID,
		Scheduled:             []ScheduledCandidate{},
		Failed:                []FailedCandidate{},
		UnscheduledNoCapacity: []UnscheduledCandidate{},
	}
	for i, o := range outcomes {
		id := candidates[i].ID
		switch o.kind {
		case outcomeScheduled:
			result.Scheduled = append(result.Scheduled, o.scheduled)
		case outcomeFailed:
			result.Failed = append(result.Failed, FailedCandidate{CandidateID: id, Slot: o.slot, Reason: o.err.Error(), Err: o.err})
		case outcomeNoCapacity:
			result.UnscheduledNoCapacity = append(result.UnscheduledNoCapacity, UnscheduledCandidate{CandidateID: id, Reason: o.err.Error(), Err: o.err})
		}
	}

	log.Info("Batch finished",
		zap.Int("scheduled", len(result.Scheduled)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("unscheduled_no_capacity", len(result.UnscheduledNoCapacity)))
	return result, nil
}

func (s *Scheduler) resolveCandidates(ctx context.Context, req BatchRequest) ([]interview.Candidate, error) {
	if len(req.CandidateIDs) == 0 {
		if req.JobID == 0 {
			return nil, nil
		}
		out, err := s.directory.ListEligible(ctx, req.OwnerID, req.JobID)
		if err != nil {
			return nil, fmt.Errorf("list eligible candidates for job %d: %w", req.JobID, err)
		}
		return out, nil
	}

	seen := make(map[int64]bool, len(req.CandidateIDs))
	out := make([]interview.Candidate, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateCandidate, id)
		}
		seen[id] = true

		c, err := s.directory.Candidate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", id, err)
		}
		if c.OwnerID != req.OwnerID {
			return nil, fmt.Errorf("candidate %d: %w", id, interview.ErrForbidden)
		}
		out = append(out, c)
	}
	return out, nil
}

// book makes the single calendar attempt for p and records the outcome.
func (s *Scheduler) book(ctx context.Context, log *zap.Logger, profile availability.Profile, req BatchRequest, p pair) outcome {
	slot := p.slot
	c := p.candidate
	log = log.With(zap.Int64("candidate_id", c.ID), zap.String("slot_date", slot.Date.String()), zap.String("slot_start", slot.Start.String()))

	if err := ctx.Err(); err != nil {
		return outcome{kind: outcomeFailed, slot: &slot, err: fmt.Errorf("%w: %w", ErrNotAttempted, err)}
	}

	// once issued, a call runs to completion even if the batch is cancelled,
	// so a created event is never left without a local record
	detached := context.WithoutCancel(ctx)
	start, end := slot.Bounds(s.loc)

	callCtx, cancel := context.WithTimeout(detached, s.callTimeout)
	ev, err := s.calendar.CreateEvent(callCtx, EventRequest{
		OwnerID:        req.OwnerID,
		CandidateEmail: c.Email,
		Summary:        summaryOrDefault(req.Summary),
		Description:    req.Description,
		Start:          start,
		End:            end,
		IdempotencyKey: idempotencyKey(req.OwnerID, profile.ID, slot, c.ID),
	})
	cancel()
	if err == nil && ev.JoinLink == "" {
		err = errors.New("calendar returned no join link")
	}
	if err != nil {
		log.Warn("Calendar call failed", zap.Error(err))
		return outcome{kind: outcomeFailed, slot: &slot, err: &ExternalCallError{CandidateID: c.ID, Err: err}}
	}

	persistCtx, cancel := context.WithTimeout(detached, s.callTimeout)
	defer cancel()

	booking := &BookedSlot{
		ID:              uuid.New(),
		OwnerID:         req.OwnerID,
		ProfileID:       profile.ID,
		CandidateID:     c.ID,
		Date:            slot.Date,
		Start:           slot.Start,
		End:             slot.End,
		CalendarEventID: ev.ID,
		MeetLink:        ev.JoinLink,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.bookings.Record(persistCtx, booking); err != nil {
		log.Error("Calendar event created but booking not recorded", zap.String("event_id", ev.ID), zap.Error(err))
		s.cancelEvent(detached, log, req.OwnerID, ev.ID)
		return outcome{kind: outcomeFailed, slot: &slot, err: fmt.Errorf("record booking: %w", err)}
	}
	if _, err := s.tracker.MarkScheduled(persistCtx, c, ev.JoinLink); err != nil {
		log.Error("Calendar event created but interview status not saved", zap.String("event_id", ev.ID), zap.Error(err))
		if rerr := s.bookings.Release(persistCtx, booking.ID); rerr != nil {
			log.Error("Failed to release booking", zap.String("booking_id", booking.ID.String()), zap.Error(rerr))
		}
		s.cancelEvent(detached, log, req.OwnerID, ev.ID)
		return outcome{kind: outcomeFailed, slot: &slot, err: fmt.Errorf("update interview status: %w", err)}
	}

	sc := ScheduledCandidate{
		CandidateID: c.ID,
		Email:       c.Email,
		Slot:        slot,
		StartsAt:    start,
		EndsAt:      end,
		EventID:     ev.ID,
		MeetLink:    ev.JoinLink,
	}
	if s.notifier != nil {
		if err := s.notifier.InterviewScheduled(persistCtx, req.OwnerID, sc); err != nil {
			log.Warn("Failed to publish interview scheduled event", zap.Error(err))
		}
	}
	log.Info("Interview scheduled", zap.String("event_id", ev.ID))
	return outcome{kind: outcomeScheduled, scheduled: sc}
}

// cancelEvent withdraws an event the batch could not keep. Failure is only logged.
func (s *Scheduler) cancelEvent(ctx context.Context, log *zap.Logger, ownerID, eventID string) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.calendar.CancelEvent(ctx, ownerID, eventID); err != nil {
		log.Error("Failed to cancel orphaned calendar event", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	log.Info("Cancelled orphaned calendar event", zap.String("event_id", eventID))
}

// Preview returns the next free slots of the owner's selected profile.
func (s *Scheduler) Preview(ctx context.Context, ownerID string, limit int) (availability.Profile, []availability.Slot, error) {
	profile, err := s.profiles.SelectedProfile(ctx, ownerID)
	if errors.Is(err, availability.ErrNoSelection) {
		return availability.Profile{}, nil, ErrNoActiveAvailability
	}
	if err != nil {
		return availability.Profile{}, nil, fmt.Errorf("resolve selected profile: %w", err)
	}
	booked, err := s.bookings.BookedKeys(ctx, ownerID, profile.StartDate, profile.EndDate)
	if err != nil {
		return availability.Profile{}, nil, fmt.Errorf("load booked slots: %w", err)
	}
	return profile, availability.NextAvailable(profile, booked, limit), nil
}

func (s *Scheduler) Bookings(ctx context.Context, ownerID string) ([]BookedSlot, error) {
	return s.bookings.ListBookings(ctx, ownerID)
}

func summaryOrDefault(summary string) string {
	if summary == "" {
		return defaultSummary
	}
	return summary
}

func idempotencyKey(ownerID string, profileID int64, slot availability.Slot, candidateID int64) string {
	return fmt.Sprintf("%s/%d/%s/%s/%d", ownerID, profileID, slot.Date, slot.Start, candidateID)
}
