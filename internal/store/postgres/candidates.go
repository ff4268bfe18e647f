package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"interview-scheduler/internal/interview"
)

// Candidates is the interview.Directory over the candidates table the wider
// application maintains.
type Candidates struct {
	DB *pgxpool.Pool
}

func NewCandidates(pool *pgxpool.Pool) *Candidates { return &Candidates{DB: pool} }

const candidateColumns = `id, owner_id, job_id, name, email, interview_scheduled, COALESCE(meet_link, '')`

func scanCandidate(row pgx.Row) (interview.Candidate, error) {
	var c interview.Candidate
	err := row.Scan(&c.ID, &c.OwnerID, &c.JobID, &c.Name, &c.Email, &c.Status.InterviewScheduled, &c.Status.MeetLink)
	c.Status.CandidateID = c.ID
	return c, err
}

func (s *Candidates) Candidate(ctx context.Context, id int64) (interview.Candidate, error) {
	c, err := scanCandidate(s.DB.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Candidate{}, interview.ErrNotFound
	}
	return c, err
}

func (s *Candidates) ListEligible(ctx context.Context, ownerID string, jobID int64) ([]interview.Candidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates
	      WHERE owner_id=$1 AND job_id=$2 AND selected_for_interview AND NOT interview_scheduled
	      ORDER BY id`
	rows, err := s.DB.Query(ctx, q, ownerID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []interview.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveStatus only moves a Pending row; a row already scheduled is left as is.
func (s *Candidates) SaveStatus(ctx context.Context, st interview.Status) error {
	res, err := s.DB.Exec(ctx,
		`UPDATE candidates SET interview_scheduled=$2, meet_link=$3 WHERE id=$1 AND NOT interview_scheduled`,
		st.CandidateID, st.InterviewScheduled, st.MeetLink)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var exists bool
		err := s.DB.QueryRow(ctx, `SELECT true FROM candidates WHERE id=$1`, st.CandidateID).Scan(&exists)
		if errors.Is(err, pgx.ErrNoRows) {
			return interview.ErrNotFound
		}
		if err != nil {
			return err
		}
		return interview.ErrAlreadyScheduled
	}
	return nil
}
