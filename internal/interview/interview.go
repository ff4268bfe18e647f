// Package interview tracks each candidate's interview state. A candidate
// starts Pending and becomes Scheduled only through Tracker.MarkScheduled,
// which always sets a meet link alongside the flag.
package interview

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("candidate not found")
	ErrForbidden        = errors.New("candidate belongs to another owner")
	ErrAlreadyScheduled = errors.New("interview already scheduled")
	ErrEmptyMeetLink    = errors.New("meet link is required to schedule an interview")
)

type State string

const (
	Pending   State = "pending"
	Scheduled State = "scheduled"
)

// Status is the part of a candidate this service owns.
// MeetLink is non-empty exactly when InterviewScheduled is true.
type Status struct {
	CandidateID        int64  `json:"candidate_id"`
	InterviewScheduled bool   `json:"interview_scheduled"`
	MeetLink           string `json:"meet_link,omitempty"`
}

func (s Status) State() State {
	if s.InterviewScheduled {
		return Scheduled
	}
	return Pending
}

// Schedule returns the Scheduled status reached from s with the given link.
func (s Status) Schedule(meetLink string) (Status, error) {
	if s.InterviewScheduled {
		return s, ErrAlreadyScheduled
	}
	if meetLink == "" {
		return s, ErrEmptyMeetLink
	}
	return Status{CandidateID: s.CandidateID, InterviewScheduled: true, MeetLink: meetLink}, nil
}

type Candidate struct {
	ID      int64  `json:"candidate_id"`
	OwnerID string `json:"owner_id"`
	JobID   int64  `json:"job_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Status  Status `json:"status"`
}

// Directory is the candidate store owned by the wider application.
type Directory interface {
	// Candidate returns ErrNotFound for unknown ids.
	Candidate(ctx context.Context, id int64) (Candidate, error)
	// ListEligible returns the owner's candidates for jobID that are selected
	// for interview and still Pending, in a stable order.
	ListEligible(ctx context.Context, ownerID string, jobID int64) ([]Candidate, error)
	// SaveStatus persists a Pending to Scheduled transition and returns
	// ErrAlreadyScheduled if the stored candidate is no longer Pending.
	SaveStatus(ctx context.Context, s Status) error
}

type Tracker struct {
	dir Directory
}

func NewTracker(dir Directory) *Tracker {
	return &Tracker{dir: dir}
}

// MarkScheduled moves c to Scheduled with meetLink and persists it.
func (t *Tracker) MarkScheduled(ctx context.Context, c Candidate, meetLink string) (Status, error) {
	next, err := c.Status.Schedule(meetLink)
	if err != nil {
		return c.Status, err
	}
	if err := t.dir.SaveStatus(ctx, next); err != nil {
		return c.Status, fmt.Errorf("save status for candidate %d: %w", c.ID, err)
	}
	return next, nil
}
