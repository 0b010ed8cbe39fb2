package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/model"
)

// ProfileSource resolves a user id to its public profile. It returns an
// error wrapping apperror.ErrNotFound for unknown users.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
}

// Gatekeeper turns a presented token into an authenticated identity.
type Gatekeeper struct {
	tokens *TokenService
	users  ProfileSource
}

func NewGatekeeper(tokens *TokenService, users ProfileSource) *Gatekeeper {
	return &Gatekeeper{tokens: tokens, users: users}
}

// Authenticate checks, in order: a token is present, it verifies, and its
// subject names an existing user. Failures are *apperror.AppError with
// codes unauthenticated, invalid_token and user_not_found respectively.
// Directory outages are returned wrapped, not as an auth failure.
func (g *Gatekeeper) Authenticate(ctx context.Context, token string) (*model.Profile, error) {
	if token == "" {
		return nil, apperror.Unauthenticated()
	}

	userID, err := g.tokens.Validate(token)
	if err != nil {
		return nil, apperror.InvalidToken()
	}
	if !model.ValidID(userID) {
		return nil, apperror.InvalidToken()
	}

	profile, err := g.users.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound()
		}
		return nil, fmt.Errorf("auth: loading user %s: %w", userID, err)
	}
	return profile, nil
}
