package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/scheduler"
)

func TestRecordErrorMapsConstraint(t *testing.T) {
	b := &scheduler.BookedSlot{CandidateID: 7, Start: 540}
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"slot taken", &pgconn.PgError{Code: "23505", ConstraintName: "booked_slots_slot_key"}, scheduler.ErrSlotTaken},
		{"candidate booked", &pgconn.PgError{Code: "23505", ConstraintName: "booked_slots_candidate_key"}, interview.ErrAlreadyScheduled},
		{"other error", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordError(tt.err, b); !errors.Is(got, tt.want) {
				t.Fatalf("recordError = %v, want %v", got, tt.want)
			}
		})
	}
	if recordError(nil, b) != nil {
		t.Fatal("nil error mapped to non-nil")
	}
}

// testPool connects to TEST_DATABASE_URL and applies the migrations. Tests
// using it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	if err := Migrate(ctx, pool, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	return pool
}

func testProfile(owner string) *availability.Profile {
	day, _ := availability.ParseDate("2025-01-06")
	now := time.Now().UTC()
	return &availability.Profile{
		OwnerID:         owner,
		Days:            []availability.Day{availability.Day(time.Monday)},
		StartTime:       9 * 60,
		EndTime:         12 * 60,
		DurationMinutes: 30,
		StartDate:       day,
		EndDate:         day.AddDays(7),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestProfilesConcurrentSelectKeepsOneSelected(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewProfiles(pool)
	owner := "test-" + uuid.NewString()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM availability_profiles WHERE owner_id=$1`, owner)
	})

	var ids []int64
	for i := 0; i < 3; i++ {
		p := testProfile(owner)
		if err := repo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := repo.Select(ctx, owner, id); err != nil {
				errs <- err
			}
		}(ids[i%len(ids)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Select: %v", err)
	}

	var selected int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM availability_profiles WHERE owner_id=$1 AND is_selected`, owner).Scan(&selected); err != nil {
		t.Fatal(err)
	}
	if selected != 1 {
		t.Fatalf("selected profiles = %d, want 1", selected)
	}

	cur, err := repo.Selected(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Deselect(ctx, owner, cur.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Selected(ctx, owner); !errors.Is(err, availability.ErrNoSelection) {
		t.Fatalf("after deselect: %v, want ErrNoSelection", err)
	}
	if _, err := repo.Select(ctx, "someone-else", ids[0]); !errors.Is(err, availability.ErrNotFound) {
		t.Fatalf("foreign select: %v, want ErrNotFound", err)
	}
}

func TestBookingsRecordConstraints(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	bookings := NewBookings(pool)
	owner := "test-" + uuid.NewString()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM booked_slots WHERE owner_id=$1`, owner)
		pool.Exec(context.Background(), `DELETE FROM candidates WHERE owner_id=$1`, owner)
	})

	var cand [2]int64
	for i := range cand {
		err := pool.QueryRow(ctx,
			`INSERT INTO candidates (owner_id, job_id, email, selected_for_interview) VALUES ($1, 1, $2, true) RETURNING id`,
			owner, fmt.Sprintf("c%d@example.com", i)).Scan(&cand[i])
		if err != nil {
			t.Fatal(err)
		}
	}

	day, _ := availability.ParseDate("2025-01-06")
	slot := func(candidate int64, start availability.Clock) *scheduler.BookedSlot {
		return &scheduler.BookedSlot{
			ID: uuid.New(), OwnerID: owner, ProfileID: 1, CandidateID: candidate,
			Date: day, Start: start, End: start + 30,
			CalendarEventID: "evt", MeetLink: "https://meet.google.com/x", CreatedAt: time.Now().UTC(),
		}
	}

	if err := bookings.Record(ctx, slot(cand[0], 540)); err != nil {
		t.Fatal(err)
	}
	if err := bookings.Record(ctx, slot(cand[1], 540)); !errors.Is(err, scheduler.ErrSlotTaken) {
		t.Fatalf("same slot: %v, want ErrSlotTaken", err)
	}
	if err := bookings.Record(ctx, slot(cand[0], 600)); !errors.Is(err, interview.ErrAlreadyScheduled) {
		t.Fatalf("same candidate: %v, want ErrAlreadyScheduled", err)
	}

	keys, err := bookings.BookedKeys(ctx, owner, day, day)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := keys[availability.SlotKey{Date: day, Start: 540}]; !ok || len(keys) != 1 {
		t.Fatalf("booked keys = %v", keys)
	}
}
