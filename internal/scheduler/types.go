package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"interview-scheduler/internal/availability"
)

var (
	// ErrNoActiveAvailability aborts a batch before any calendar call.
	ErrNoActiveAvailability = errors.New("no active availability profile selected")
	// ErrSlotTaken is returned by BookingStore.Record when the slot already has a booking.
	ErrSlotTaken          = errors.New("slot already booked")
	ErrDuplicateCandidate = errors.New("candidate listed more than once")
	// ErrNotAttempted marks pairs skipped because the batch was cancelled first.
	ErrNotAttempted = errors.New("calendar call not attempted")
)

// CapacityError is reported for candidates left over after slots run out.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d candidates, %d free slots", e.Requested, e.Available)
}

// ExternalCallError wraps a calendar failure for one candidate.
type ExternalCallError struct {
	CandidateID int64
	Err         error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("calendar call for candidate %d: %v", e.CandidateID, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// EventRequest is one interview invitation. IdempotencyKey is stable for the
// same owner, profile, slot and candidate.
type EventRequest struct {
	OwnerID        string
	CandidateEmail string
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	IdempotencyKey string
}

type Event struct {
	ID       string
	JoinLink string
}

// Calendar creates interview events on the recruiter's calendar. CancelEvent
// withdraws an event whose booking could not be kept, notifying attendees.
type Calendar interface {
	CreateEvent(ctx context.Context, req EventRequest) (Event, error)
	CancelEvent(ctx context.Context, ownerID, eventID string) error
}

// BookedSlot is the local record of a confirmed calendar event.
type BookedSlot struct {
	ID              uuid.UUID          `json:"id"`
	OwnerID         string             `json:"owner_id"`
	ProfileID       int64              `json:"profile_id"`
	CandidateID     int64              `json:"candidate_id"`
	Date            availability.Date  `json:"date"`
	Start           availability.Clock `json:"start"`
	End             availability.Clock `json:"end"`
	CalendarEventID string             `json:"calendar_event_id"`
	MeetLink        string             `json:"meet_link"`
	CreatedAt       time.Time          `json:"created_at"`
}

func (b BookedSlot) Key() availability.SlotKey {
	return availability.SlotKey{Date: b.Date, Start: b.Start}
}

// BookingStore persists booked slots. Bookings are unique per owner, date and start.
type BookingStore interface {
	// BookedKeys returns the keys of the owner's bookings dated within [from, to].
	BookedKeys(ctx context.Context, ownerID string, from, to availability.Date) (map[availability.SlotKey]struct{}, error)
	// Record returns ErrSlotTaken if the key is already booked for the owner
	// and interview.ErrAlreadyScheduled if the candidate already holds a booking.
	Record(ctx context.Context, b *BookedSlot) error
	// Release removes a booking whose candidate update could not be saved.
	Release(ctx context.Context, id uuid.UUID) error
	ListBookings(ctx context.Context, ownerID string) ([]BookedSlot, error)
}

// Notifier receives one call per scheduled candidate.
type Notifier interface {
	InterviewScheduled(ctx context.Context, ownerID string, s ScheduledCandidate) error
}

type BatchRequest struct {
	OwnerID string
	// CandidateIDs is the ordered eligible set. When empty, JobID selects it.
	CandidateIDs []int64
	JobID        int64
	Summary      string
	Description  string
}

type ScheduledCandidate struct {
	CandidateID int64             `json:"candidate_id"`
	Email       string            `json:"email"`
	Slot        availability.Slot `json:"slot"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	EventID     string            `json:"event_id"`
	MeetLink    string            `json:"meet_link"`
}

type FailedCandidate struct {
	CandidateID int64              `json:"candidate_id"`
	Slot        *availability.Slot `json:"slot,omitempty"`
	Reason      string             `json:"reason"`
	Err         error              `json:"-"`
}

type UnscheduledCandidate struct {
	CandidateID int64  `json:"candidate_id"`
	Reason      string `json:"reason"`
	Err         error  `json:"-"`
}

// BatchResult accounts for every submitted candidate exactly once.
type BatchResult struct {
	ProfileID             int64                  `json:"profile_id"`
	Scheduled             []ScheduledCandidate   `json:"scheduled"`
	Failed                []FailedCandidate      `json:"failed"`
	UnscheduledNoCapacity []UnscheduledCandidate `json:"unscheduled_no_capacity"`
}

func (r *BatchResult) Total() int {
	return len(r.Scheduled) + len(r.Failed) + len(r.UnscheduledNoCapacity)
}
