package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const stateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid oauth state")

// AuthURL starts the consent flow for ownerID. The state is a short-lived
// signed token naming the owner, checked again in Complete.
func (g *Google) AuthURL(ownerID string) (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.stateSecret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

func (g *Google) ownerFromState(state string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (interface{}, error) {
		return g.stateSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidState
	}
	return claims.Subject, nil
}

// Complete exchanges the authorization code and stores the grant for the
// owner named in state.
func (g *Google) Complete(ctx context.Context, code, state string) (StoredToken, error) {
	ownerID, err := g.ownerFromState(state)
	if err != nil {
		return StoredToken{}, err
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return StoredToken{}, fmt.Errorf("exchange code for token: %w", err)
	}

	st := StoredToken{OwnerID: ownerID, Token: tok, UpdatedAt: g.now().UTC()}

	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}, g.clientOpts...)
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err == nil {
		if info, err := svc.Userinfo.Get().Context(ctx).Do(); err == nil {
			st.Email = info.Email
		} else {
			g.logger.Warn("Failed to fetch google user info", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}

	if err := g.tokens.SaveToken(ctx, st); err != nil {
		return StoredToken{}, fmt.Errorf("store google token: %w", err)
	}
	return st, nil
}

// Connection reports the owner's stored grant, if any.
func (g *Google) Connection(ctx context.Context, ownerID string) (StoredToken, bool, error) {
	st, err := g.tokens.Token(ctx, ownerID)
	if errors.Is(err, ErrNotConnected) {
		return StoredToken{}, false, nil
	}
	if err != nil {
		return StoredToken{}, false, err
	}
	return st, true, nil
}
