// Package memory keeps scheduling state in process. It backs the "memory"
// storage driver for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/calendar"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/scheduler"
)

type Profiles struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]availability.Profile
}

func NewProfiles() *Profiles {
	return &Profiles{rows: make(map[int64]availability.Profile)}
}

func cloneProfile(p availability.Profile) availability.Profile {
	p.Days = append([]availability.Day(nil), p.Days...)
	return p
}

func (s *Profiles) Create(_ context.Context, p *availability.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.rows[p.ID] = cloneProfile(*p)
	return nil
}

func (s *Profiles) Get(_ context.Context, id int64) (availability.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return availability.Profile{}, availability.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Profiles) Update(_ context.Context, p *availability.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[p.ID]
	if !ok {
		return availability.ErrNotFound
	}
	next := cloneProfile(*p)
	next.OwnerID = cur.OwnerID
	next.IsSelected = cur.IsSelected
	next.CreatedAt = cur.CreatedAt
	s.rows[p.ID] = next
	p.IsSelected = cur.IsSelected
	return nil
}

func (s *Profiles) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return availability.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *Profiles) ListByOwner(_ context.Context, ownerID string) ([]availability.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []availability.Profile{}
	for _, p := range s.rows {
		if p.OwnerID == ownerID {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Profiles) Selected(_ context.Context, ownerID string) (availability.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.OwnerID == ownerID && p.IsSelected {
			return cloneProfile(p), nil
		}
	}
	return availability.Profile{}, availability.ErrNoSelection
}

// Select flips every flag for the owner under one mutex hold, so readers never
// observe two selected profiles.
func (s *Profiles) Select(_ context.Context, ownerID string, id int64) (availability.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.rows[id]
	if !ok || target.OwnerID != ownerID {
		return availability.Profile{}, availability.ErrNotFound
	}
	for pid, p := range s.rows {
		if p.OwnerID == ownerID && p.IsSelected && pid != id {
			p.IsSelected = false
			s.rows[pid] = p
		}
	}
	target.IsSelected = true
	s.rows[id] = target
	return cloneProfile(target), nil
}

func (s *Profiles) Deselect(_ context.Context, ownerID string, id int64) (availability.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.rows[id]
	if !ok || target.OwnerID != ownerID {
		return availability.Profile{}, availability.ErrNotFound
	}
	target.IsSelected = false
	s.rows[id] = target
	return cloneProfile(target), nil
}

type Bookings struct {
	mu   sync.Mutex
	rows []scheduler.BookedSlot
}

func NewBookings() *Bookings { return &Bookings{} }

func (s *Bookings) BookedKeys(_ context.Context, ownerID string, from, to availability.Date) (map[availability.SlotKey]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[availability.SlotKey]struct{})
	for _, b := range s.rows {
		if b.OwnerID != ownerID || b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out[b.Key()] = struct{}{}
	}
	return out, nil
}

func (s *Bookings) Record(_ context.Context, b *scheduler.BookedSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.rows {
		if x.CandidateID == b.CandidateID {
			return interview.ErrAlreadyScheduled
		}
		if x.OwnerID == b.OwnerID && x.Key() == b.Key() {
			return scheduler.ErrSlotTaken
		}
	}
	s.rows = append(s.rows, *b)
	return nil
}

func (s *Bookings) Release(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.rows {
		if x.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Bookings) ListBookings(_ context.Context, ownerID string) ([]scheduler.BookedSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []scheduler.BookedSlot{}
	for _, b := range s.rows {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// Candidates is an interview.Directory over a fixed set of candidates.
type Candidates struct {
	mu       sync.Mutex
	order    []int64
	rows     map[int64]interview.Candidate
	selected map[int64]bool
}

func NewCandidates() *Candidates {
	return &Candidates{rows: make(map[int64]interview.Candidate), selected: make(map[int64]bool)}
}

// Add stores c; selectedForInterview makes it eligible for job-wide batches.
func (s *Candidates) Add(c interview.Candidate, selectedForInterview bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Status.CandidateID = c.ID
	if _, ok := s.rows[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.rows[c.ID] = c
	s.selected[c.ID] = selectedForInterview
}

func (s *Candidates) Candidate(_ context.Context, id int64) (interview.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return interview.Candidate{}, interview.ErrNotFound
	}
	return c, nil
}

func (s *Candidates) ListEligible(_ context.Context, ownerID string, jobID int64) ([]interview.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []interview.Candidate
	for _, id := range s.order {
		c := s.rows[id]
		if c.OwnerID == ownerID && c.JobID == jobID && s.selected[id] && !c.Status.InterviewScheduled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Candidates) SaveStatus(_ context.Context, st interview.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[st.CandidateID]
	if !ok {
		return interview.ErrNotFound
	}
	if c.Status.InterviewScheduled {
		return interview.ErrAlreadyScheduled
	}
	c.Status = st
	s.rows[st.CandidateID] = c
	return nil
}

type Tokens struct {
	mu   sync.Mutex
	rows map[string]calendar.StoredToken
}

func NewTokens() *Tokens {
	return &Tokens{rows: make(map[string]calendar.StoredToken)}
}

func (s *Tokens) Token(_ context.Context, ownerID string) (calendar.StoredToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[ownerID]
	if !ok {
		return calendar.StoredToken{}, calendar.ErrNotConnected
	}
	return t, nil
}

// SaveToken keeps the stored refresh token and email when t omits them.
func (s *Tokens) SaveToken(_ context.Context, t calendar.StoredToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.rows[t.OwnerID]; ok {
		if t.Email == "" {
			t.Email = prev.Email
		}
		if t.Token != nil && t.Token.RefreshToken == "" && prev.Token != nil {
			tok := *t.Token
			tok.RefreshToken = prev.Token.RefreshToken
			t.Token = &tok
		}
	}
	s.rows[t.OwnerID] = t
	return nil
}
