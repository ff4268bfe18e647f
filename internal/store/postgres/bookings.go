package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/scheduler"
)

// Bookings is the scheduler.BookingStore backed by booked_slots.
type Bookings struct {
	DB *pgxpool.Pool
}

func NewBookings(pool *pgxpool.Pool) *Bookings { return &Bookings{DB: pool} }

func (s *Bookings) BookedKeys(ctx context.Context, ownerID string, from, to availability.Date) (map[availability.SlotKey]struct{}, error) {
	q := `SELECT slot_date, start_time::text FROM booked_slots
	      WHERE owner_id=$1 AND slot_date >= $2 AND slot_date <= $3`
	rows, err := s.DB.Query(ctx, q, ownerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[availability.SlotKey]struct{})
	for rows.Next() {
		var (
			date  time.Time
			start string
		)
		if err := rows.Scan(&date, &start); err != nil {
			return nil, err
		}
		c, err := availability.ParseClock(start)
		if err != nil {
			return nil, err
		}
		out[availability.SlotKey{Date: availability.DateOf(date), Start: c}] = struct{}{}
	}
	return out, rows.Err()
}

func (s *Bookings) Record(ctx context.Context, b *scheduler.BookedSlot) error {
	q := `INSERT INTO booked_slots
		(id, owner_id, profile_id, candidate_id, slot_date, start_time, end_time, calendar_event_id, meet_link, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := s.DB.Exec(ctx, q,
		b.ID, b.OwnerID, b.ProfileID, b.CandidateID, b.Date.UTC(), b.Start.String(), b.End.String(),
		b.CalendarEventID, b.MeetLink, b.CreatedAt)
	return recordError(err, b)
}

func recordError(err error, b *scheduler.BookedSlot) error {
	constraint, ok := uniqueViolation(err)
	switch {
	case !ok:
		return err
	case constraint == "booked_slots_candidate_key":
		return fmt.Errorf("candidate %d: %w", b.CandidateID, interview.ErrAlreadyScheduled)
	default:
		return fmt.Errorf("%w: %s %s", scheduler.ErrSlotTaken, b.Date, b.Start)
	}
}

func (s *Bookings) Release(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM booked_slots WHERE id=$1`, id)
	return err
}

func (s *Bookings) ListBookings(ctx context.Context, ownerID string) ([]scheduler.BookedSlot, error) {
	q := `SELECT id, owner_id, profile_id, candidate_id, slot_date, start_time::text, end_time::text,
	             calendar_event_id, meet_link, created_at
	      FROM booked_slots WHERE owner_id=$1 ORDER BY slot_date, start_time`
	rows, err := s.DB.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []scheduler.BookedSlot{}
	for rows.Next() {
		var (
			b          scheduler.BookedSlot
			date       time.Time
			start, end string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.ProfileID, &b.CandidateID, &date, &start, &end,
			&b.CalendarEventID, &b.MeetLink, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Date = availability.DateOf(date)
		if b.Start, err = availability.ParseClock(start); err != nil {
			return nil, err
		}
		if b.End, err = availability.ParseClock(end); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
