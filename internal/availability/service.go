package availability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/lock"
	"interview-scheduler/internal/logging"
)

// Service is the recruiter-facing API over a profile Repository. Writes that
// touch selection state run under the owner's lock.
type Service struct {
	repo    Repository
	locks   lock.Locker
	allowed []Day
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*Service)

// WithAllowedDays restricts the weekdays a profile may name.
func WithAllowedDays(days []Day) Option {
	return func(s *Service) { s.allowed = days }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locks lock.Locker, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, locks: locks, now: time.Now, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) CreateProfile(ctx context.Context, ownerID string, p Profile) (Profile, error) {
	p.ID = 0
	p.OwnerID = ownerID
	p.IsSelected = false
	if err := p.Validate(s.allowed); err != nil {
		return Profile{}, err
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := s.repo.Create(ctx, &p); err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	logging.With(ctx, s.logger).Info("Availability profile created",
		zap.String("owner_id", ownerID), zap.Int64("profile_id", p.ID))
	return p, nil
}

// Profile returns one of the owner's profiles.
func (s *Service) Profile(ctx context.Context, ownerID string, id int64) (Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if p.OwnerID != ownerID {
		return Profile{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListProfiles(ctx context.Context, ownerID string) ([]Profile, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// SelectedProfile returns ErrNoSelection when the owner has none. Callers that
// act on the result while holding the owner lock see a stable answer.
func (s *Service) SelectedProfile(ctx context.Context, ownerID string) (Profile, error) {
	return s.repo.Selected(ctx, ownerID)
}

func (s *Service) UpdateProfile(ctx context.Context, ownerID string, id int64, patch Patch) (Profile, error) {
	unlock, err := s.locks.Lock(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return Profile{}, fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	defer unlock()

	p, err := s.Profile(ctx, ownerID, id)
	if err != nil {
		return Profile{}, err
	}
	patch.Apply(&p)
	if err := p.Validate(s.allowed); err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, &p); err != nil {
		return Profile{}, fmt.Errorf("update profile %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) DeleteProfile(ctx context.Context, ownerID string, id int64) error {
	unlock, err := s.locks.Lock(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	defer unlock()

	p, err := s.Profile(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete profile %d: %w", id, err)
	}
	if p.IsSelected {
		logging.With(ctx, s.logger).Info("Selected availability profile deleted, owner has no active availability",
			zap.String("owner_id", ownerID), zap.Int64("profile_id", id))
	}
	return nil
}

// SelectProfile makes id the owner's only selected profile.
func (s *Service) SelectProfile(ctx context.Context, ownerID string, id int64) (Profile, error) {
	unlock, err := s.locks.Lock(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return Profile{}, fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	defer unlock()

	if _, err := s.Profile(ctx, ownerID, id); err != nil {
		return Profile{}, err
	}
	p, err := s.repo.Select(ctx, ownerID, id)
	if err != nil {
		return Profile{}, err
	}
	logging.With(ctx, s.logger).Info("Availability profile selected",
		zap.String("owner_id", ownerID), zap.Int64("profile_id", id))
	return p, nil
}

func (s *Service) DeselectProfile(ctx context.Context, ownerID string, id int64) (Profile, error) {
	unlock, err := s.locks.Lock(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return Profile{}, fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	defer unlock()

	if _, err := s.Profile(ctx, ownerID, id); err != nil {
		return Profile{}, err
	}
	return s.repo.Deselect(ctx, ownerID, id)
}
