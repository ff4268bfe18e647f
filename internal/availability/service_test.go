package availability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/lock"
	"interview-scheduler/internal/store/memory"
)

func newService(t *testing.T) (*availability.Service, *memory.Profiles) {
	t.Helper()
	repo := memory.NewProfiles()
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := availability.NewService(repo, lock.NewLocal(), zap.NewNop(),
		availability.WithAllowedDays(availability.WeekdaysOnly),
		availability.WithClock(func() time.Time { return fixed }))
	return svc, repo
}

func draft(t *testing.T) availability.Profile {
	t.Helper()
	start, _ := availability.ParseDate("2025-01-06")
	end, _ := availability.ParseDate("2025-01-31")
	return availability.Profile{
		Days:            []availability.Day{availability.Day(time.Monday), availability.Day(time.Wednesday)},
		StartTime:       9 * 60,
		EndTime:         12 * 60,
		DurationMinutes: 30,
		StartDate:       start,
		EndDate:         end,
	}
}

func selectedCount(t *testing.T, svc *availability.Service, owner string) int {
	t.Helper()
	profiles, err := svc.ListProfiles(context.Background(), owner)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, p := range profiles {
		if p.IsSelected {
			n++
		}
	}
	return n
}

func TestCreateProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := draft(t)
	in.IsSelected = true
	p, err := svc.CreateProfile(ctx, "alice", in)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if p.ID == 0 || p.OwnerID != "alice" || p.IsSelected || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected profile %+v", p)
	}

	bad := draft(t)
	bad.Days = []availability.Day{availability.Day(time.Sunday)}
	_, err = svc.CreateProfile(ctx, "alice", bad)
	var verr *availability.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	profiles, _ := svc.ListProfiles(ctx, "alice")
	if len(profiles) != 1 {
		t.Fatalf("invalid profile was persisted: %d profiles", len(profiles))
	}
}

func TestSelectReplacesPreviousSelection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, _ := svc.CreateProfile(ctx, "alice", draft(t))
	b, _ := svc.CreateProfile(ctx, "alice", draft(t))
	other, _ := svc.CreateProfile(ctx, "bob", draft(t))

	if _, err := svc.SelectProfile(ctx, "alice", a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectProfile(ctx, "bob", other.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.SelectProfile(ctx, "alice", b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsSelected {
		t.Fatal("returned profile is not selected")
	}

	a, _ = svc.Profile(ctx, "alice", a.ID)
	b, _ = svc.Profile(ctx, "alice", b.ID)
	if a.IsSelected || !b.IsSelected {
		t.Fatalf("a.selected=%v b.selected=%v", a.IsSelected, b.IsSelected)
	}
	sel, err := svc.SelectedProfile(ctx, "bob")
	if err != nil || sel.ID != other.ID {
		t.Fatalf("other owner's selection changed: %+v %v", sel, err)
	}

	// selecting again is a no-op
	if _, err := svc.SelectProfile(ctx, "alice", b.ID); err != nil {
		t.Fatal(err)
	}
	if n := selectedCount(t, svc, "alice"); n != 1 {
		t.Fatalf("selected count = %d", n)
	}
}

func TestConcurrentSelectKeepsOneSelected(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 8; i++ {
		p, err := svc.CreateProfile(ctx, "alice", draft(t))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	for round := 0; round < 20; round++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				if _, err := svc.SelectProfile(ctx, "alice", id); err != nil {
					t.Errorf("SelectProfile(%d): %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	if n := selectedCount(t, svc, "alice"); n != 1 {
		t.Fatalf("selected count = %d, want 1", n)
	}
}

func TestOwnership(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProfile(ctx, "alice", draft(t))

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := svc.Profile(ctx, "mallory", p.ID); return err }},
		{"update", func() error {
			_, err := svc.UpdateProfile(ctx, "mallory", p.ID, availability.Patch{})
			return err
		}},
		{"delete", func() error { return svc.DeleteProfile(ctx, "mallory", p.ID) }},
		{"select", func() error { _, err := svc.SelectProfile(ctx, "mallory", p.ID); return err }},
		{"deselect", func() error { _, err := svc.DeselectProfile(ctx, "mallory", p.ID); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, availability.ErrForbidden) {
				t.Fatalf("got %v, want ErrForbidden", err)
			}
		})
	}

	if _, err := svc.Profile(ctx, "alice", 999); !errors.Is(err, availability.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateKeepsSelection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProfile(ctx, "alice", draft(t))
	if _, err := svc.SelectProfile(ctx, "alice", p.ID); err != nil {
		t.Fatal(err)
	}

	brk := 15
	got, err := svc.UpdateProfile(ctx, "alice", p.ID, availability.Patch{BreakMinutes: &brk})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.BreakMinutes != 15 || got.DurationMinutes != 30 || !got.IsSelected {
		t.Fatalf("unexpected profile %+v", got)
	}

	end := availability.Clock(9 * 60)
	_, err = svc.UpdateProfile(ctx, "alice", p.ID, availability.Patch{EndTime: &end})
	var verr *availability.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored, _ := svc.Profile(ctx, "alice", p.ID)
	if stored.EndTime != 12*60 {
		t.Fatalf("invalid edit was persisted: %+v", stored)
	}
}

func TestDeleteSelectedLeavesNoSelection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProfile(ctx, "alice", draft(t))
	if _, err := svc.SelectProfile(ctx, "alice", p.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteProfile(ctx, "alice", p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectedProfile(ctx, "alice"); !errors.Is(err, availability.ErrNoSelection) {
		t.Fatalf("got %v, want ErrNoSelection", err)
	}
	if err := svc.DeleteProfile(ctx, "alice", p.ID); !errors.Is(err, availability.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeselect(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProfile(ctx, "alice", draft(t))
	if _, err := svc.SelectProfile(ctx, "alice", p.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.DeselectProfile(ctx, "alice", p.ID)
	if err != nil || got.IsSelected {
		t.Fatalf("DeselectProfile = %+v, %v", got, err)
	}
	if n := selectedCount(t, svc, "alice"); n != 0 {
		t.Fatalf("selected count = %d", n)
	}
}
