package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("availability profile not found")
	ErrForbidden   = errors.New("availability profile belongs to another owner")
	ErrNoSelection = errors.New("no availability profile selected")
)

// Profile is a recruiter's recurring weekly availability over a date window.
type Profile struct {
	ID              int64     `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Days            []Day     `json:"days"`
	StartTime       Clock     `json:"start_time"`
	EndTime         Clock     `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	BreakMinutes    int       `json:"break_minutes"`
	StartDate       Date      `json:"start_date"`
	EndDate         Date      `json:"end_date"`
	IsSelected      bool      `json:"is_selected"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// ValidationError lists every rule a profile breaks. Profiles carrying one are never persisted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid availability profile: " + strings.Join(e.Problems, "; ")
}

// Validate checks the profile's fields. A nil allowed set admits every weekday.
func (p *Profile) Validate(allowed []Day) error {
	var problems []string

	if len(p.Days) == 0 {
		problems = append(problems, "days must not be empty")
	}
	seen := make(map[Day]bool, len(p.Days))
	for _, d := range p.Days {
		if d < Day(time.Sunday) || d > Day(time.Saturday) {
			problems = append(problems, fmt.Sprintf("invalid weekday %d", int(d)))
			continue
		}
		if seen[d] {
			problems = append(problems, fmt.Sprintf("duplicate day %s", d))
		}
		seen[d] = true
		if allowed != nil && !containsDay(allowed, d) {
			problems = append(problems, fmt.Sprintf("day %s is not allowed", d))
		}
	}

	if p.StartTime < 0 || p.StartTime >= minutesPerDay || p.EndTime < 0 || p.EndTime >= minutesPerDay {
		problems = append(problems, "times must be within one day")
	}
	if p.StartTime >= p.EndTime {
		problems = append(problems, "start_time must be before end_time")
	}
	if p.DurationMinutes <= 0 {
		problems = append(problems, "duration_minutes must be positive")
	}
	if p.BreakMinutes < 0 {
		problems = append(problems, "break_minutes must not be negative")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		problems = append(problems, "start_date and end_date are required")
	} else if p.StartDate.After(p.EndDate) {
		problems = append(problems, "start_date must not be after end_date")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func containsDay(days []Day, d Day) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

// Patch carries a partial edit; nil fields are left unchanged.
type Patch struct {
	Days            []Day  `json:"days,omitempty"`
	StartTime       *Clock `json:"start_time,omitempty"`
	EndTime         *Clock `json:"end_time,omitempty"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
	BreakMinutes    *int   `json:"break_minutes,omitempty"`
	StartDate       *Date  `json:"start_date,omitempty"`
	EndDate         *Date  `json:"end_date,omitempty"`
}

// Apply copies the set fields onto p. Selection is not editable through a patch.
func (pt Patch) Apply(p *Profile) {
	if pt.Days != nil {
		p.Days = append([]Day(nil), pt.Days...)
	}
	if pt.StartTime != nil {
		p.StartTime = *pt.StartTime
	}
	if pt.EndTime != nil {
		p.EndTime = *pt.EndTime
	}
	if pt.DurationMinutes != nil {
		p.DurationMinutes = *pt.DurationMinutes
	}
	if pt.BreakMinutes != nil {
		p.BreakMinutes = *pt.BreakMinutes
	}
	if pt.StartDate != nil {
		p.StartDate = *pt.StartDate
	}
	if pt.EndDate != nil {
		p.EndDate = *pt.EndDate
	}
}

// Repository persists profiles. Select and Deselect must be atomic per owner:
// after Select returns, the target is the owner's only selected profile.
// Get, Select and Deselect return ErrNotFound for unknown ids; Select and
// Deselect also return it when the id belongs to another owner.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id int64) (Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]Profile, error)
	// Selected returns ErrNoSelection when the owner has no selected profile.
	Selected(ctx context.Context, ownerID string) (Profile, error)
	Select(ctx context.Context, ownerID string, id int64) (Profile, error)
	Deselect(ctx context.Context, ownerID string, id int64) (Profile, error)
}
