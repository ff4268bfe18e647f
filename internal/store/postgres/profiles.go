package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"interview-scheduler/internal/availability"
)

const profileColumns = `id, owner_id, days, start_time::text, end_time::text, duration_minutes, break_minutes,
	start_date, end_date, is_selected, created_at, updated_at`

// Profiles is the availability.Repository backed by availability_profiles.
type Profiles struct {
	DB *pgxpool.Pool
}

func NewProfiles(pool *pgxpool.Pool) *Profiles { return &Profiles{DB: pool} }

func dayNames(days []availability.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func scanProfile(row pgx.Row) (availability.Profile, error) {
	var (
		p                  availability.Profile
		days               []string
		start, end         string
		startDate, endDate time.Time
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &days, &start, &end, &p.DurationMinutes, &p.BreakMinutes,
		&startDate, &endDate, &p.IsSelected, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return availability.Profile{}, err
	}
	for _, name := range days {
		d, err := availability.ParseDay(name)
		if err != nil {
			return availability.Profile{}, fmt.Errorf("profile %d: %w", p.ID, err)
		}
		p.Days = append(p.Days, d)
	}
	var err error
	if p.StartTime, err = availability.ParseClock(start); err != nil {
		return availability.Profile{}, fmt.Errorf("profile %d: %w", p.ID, err)
	}
	if p.EndTime, err = availability.ParseClock(end); err != nil {
		return availability.Profile{}, fmt.Errorf("profile %d: %w", p.ID, err)
	}
	p.StartDate = availability.DateOf(startDate)
	p.EndDate = availability.DateOf(endDate)
	return p, nil
}

func (s *Profiles) Create(ctx context.Context, p *availability.Profile) error {
	q := `INSERT INTO availability_profiles
          (owner_id, days, start_time, end_time, duration_minutes, break_minutes, start_date, end_date, is_selected, created_at, updated_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false,$9,$10) RETURNING id`

	row := s.DB.QueryRow(ctx, q,
		p.OwnerID, dayNames(p.Days), p.StartTime.String(), p.EndTime.String(),
		p.DurationMinutes, p.BreakMinutes, p.StartDate.UTC(), p.EndDate.UTC(),
		p.CreatedAt, p.UpdatedAt)

	return row.Scan(&p.ID)
}

func (s *Profiles) Get(ctx context.Context, id int64) (availability.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM availability_profiles WHERE id=$1`
	p, err := scanProfile(s.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Profile{}, availability.ErrNotFound
	}
	return p, err
}

// Update rewrites every editable column; is_selected is left to Select and Deselect.
func (s *Profiles) Update(ctx context.Context, p *availability.Profile) error {
	q := `UPDATE availability_profiles
          SET days=$1, start_time=$2, end_time=$3, duration_minutes=$4, break_minutes=$5,
              start_date=$6, end_date=$7, updated_at=$8
          WHERE id=$9 AND owner_id=$10
          RETURNING is_selected`

	err := s.DB.QueryRow(ctx, q,
		dayNames(p.Days), p.StartTime.String(), p.EndTime.String(), p.DurationMinutes, p.BreakMinutes,
		p.StartDate.UTC(), p.EndDate.UTC(), p.UpdatedAt, p.ID, p.OwnerID,
	).Scan(&p.IsSelected)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.ErrNotFound
	}
	return err
}

func (s *Profiles) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM availability_profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return availability.ErrNotFound
	}
	return nil
}

func (s *Profiles) ListByOwner(ctx context.Context, ownerID string) ([]availability.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM availability_profiles WHERE owner_id=$1 ORDER BY id`
	rows, err := s.DB.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []availability.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Profiles) Selected(ctx context.Context, ownerID string) (availability.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM availability_profiles WHERE owner_id=$1 AND is_selected`
	p, err := scanProfile(s.DB.QueryRow(ctx, q, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Profile{}, availability.ErrNoSelection
	}
	return p, err
}

// Select deselects the owner's other profiles and selects id in one
// transaction. An advisory lock on the owner serializes concurrent selects
// across instances; the partial unique index backs it up.
func (s *Profiles) Select(ctx context.Context, ownerID string, id int64) (availability.Profile, error) {
	return s.setSelected(ctx, ownerID, id, true)
}

func (s *Profiles) Deselect(ctx context.Context, ownerID string, id int64) (availability.Profile, error) {
	return s.setSelected(ctx, ownerID, id, false)
}

func (s *Profiles) setSelected(ctx context.Context, ownerID string, id int64, selected bool) (availability.Profile, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return availability.Profile{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return availability.Profile{}, fmt.Errorf("lock owner %s: %w", ownerID, err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT true FROM availability_profiles WHERE id=$1 AND owner_id=$2 FOR UPDATE`, id, ownerID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.Profile{}, availability.ErrNotFound
	}
	if err != nil {
		return availability.Profile{}, err
	}

	now := time.Now().UTC()
	if selected {
		if _, err := tx.Exec(ctx,
			`UPDATE availability_profiles SET is_selected=false, updated_at=$3 WHERE owner_id=$1 AND id<>$2 AND is_selected`,
			ownerID, id, now); err != nil {
			return availability.Profile{}, err
		}
	}

	q := `UPDATE availability_profiles SET is_selected=$3, updated_at=$4 WHERE id=$1 AND owner_id=$2 RETURNING ` + profileColumns
	p, err := scanProfile(tx.QueryRow(ctx, q, id, ownerID, selected, now))
	if err != nil {
		return availability.Profile{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return availability.Profile{}, err
	}
	return p, nil
}
