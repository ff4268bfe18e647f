package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"

	"interview-scheduler/internal/calendar"
)

// Tokens stores each recruiter's Google grant in google_tokens.
type Tokens struct {
	DB *pgxpool.Pool
}

func NewTokens(pool *pgxpool.Pool) *Tokens { return &Tokens{DB: pool} }

func (s *Tokens) Token(ctx context.Context, ownerID string) (calendar.StoredToken, error) {
	q := `SELECT owner_id, email, access_token, refresh_token, token_type, expiry, updated_at
	      FROM google_tokens WHERE owner_id=$1`
	var (
		st     calendar.StoredToken
		tok    oauth2.Token
		expiry *time.Time
	)
	err := s.DB.QueryRow(ctx, q, ownerID).Scan(&st.OwnerID, &st.Email, &tok.AccessToken, &tok.RefreshToken,
		&tok.TokenType, &expiry, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return calendar.StoredToken{}, calendar.ErrNotConnected
	}
	if err != nil {
		return calendar.StoredToken{}, err
	}
	if expiry != nil {
		tok.Expiry = *expiry
	}
	st.Token = &tok
	return st, nil
}

// SaveToken upserts the grant. A refresh without a new refresh token keeps the stored one.
func (s *Tokens) SaveToken(ctx context.Context, st calendar.StoredToken) error {
	var expiry *time.Time
	if !st.Token.Expiry.IsZero() {
		expiry = &st.Token.Expiry
	}
	q := `INSERT INTO google_tokens (owner_id, email, access_token, refresh_token, token_type, expiry, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7)
	      ON CONFLICT (owner_id) DO UPDATE SET
	          email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE google_tokens.email END,
	          access_token = EXCLUDED.access_token,
	          refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE google_tokens.refresh_token END,
	          token_type = EXCLUDED.token_type,
	          expiry = EXCLUDED.expiry,
	          updated_at = EXCLUDED.updated_at`
	_, err := s.DB.Exec(ctx, q, st.OwnerID, st.Email, st.Token.AccessToken, st.Token.RefreshToken,
		st.Token.TokenType, expiry, st.UpdatedAt)
	return err
}
