package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/cache"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/repository"
)

const MaxBioLength = 250

// UserService is the user directory. Profile lookups sit on the hot path of
// every socket handshake and message delivery, so they go through an
// optional cache and concurrent misses for one id share a single query.
type UserService struct {
	repo   repository.UserRepository
	cache  cache.Cache // nil disables caching
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func profileKey(id string) string { return "profile:" + id }

// Profile returns the public identity of userID.
func (s *UserService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if p, ok := s.cachedProfile(ctx, userID); ok {
		return p, nil
	}

	// The flight is shared, so it must outlive the caller that started it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(userID, func() (any, error) {
		u, err := s.repo.GetUserByID(flightCtx, userID)
		if err != nil {
			return nil, err
		}
		p := u.Profile()
		s.storeProfile(flightCtx, &p)
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*model.Profile)
	return &p, nil
}

func (s *UserService) cachedProfile(ctx context.Context, id string) (*model.Profile, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, profileKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("profile cache read failed", slog.String("userID", id), slog.String("error", err.Error()))
		}
		return nil, false
	}
	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (s *UserService) storeProfile(ctx context.Context, p *model.Profile) {
	if s.cache == nil {
		return
	}
	b, _ := json.Marshal(p)
	if err := s.cache.Set(ctx, profileKey(p.ID), string(b), s.ttl); err != nil {
		s.logger.Warn("profile cache write failed", slog.String("userID", p.ID), slog.String("error", err.Error()))
	}
}

// GetPublicProfile returns the user without email or credentials.
func (s *UserService) GetPublicProfile(ctx context.Context, userID string) (*model.User, error) {
	if !model.ValidID(userID) {
		return nil, apperror.ValidationFailed("userId", "Invalid user ID format.")
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("User not found.")
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return u.Public(), nil
}

// Me returns the caller's own account, email included.
func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes bio and/or profile picture. The cached profile is
// dropped so later lookups see the new picture.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, bio, picture *string) (*model.User, error) {
	upd := repository.ProfileUpdate{}
	if bio != nil {
		b := strings.TrimSpace(*bio)
		if utf8.RuneCountInString(b) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("Bio cannot exceed %d characters.", MaxBioLength))
		}
		upd.Bio = &b
	}
	if picture != nil {
		p := strings.TrimSpace(*picture)
		upd.ProfilePicture = &p
	}

	u, err := s.repo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, profileKey(userID)); err != nil {
			s.logger.Warn("profile cache invalidation failed", slog.String("userID", userID), slog.String("error", err.Error()))
		}
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return u.Public(), nil
}

// Search finds users whose username contains query, ignoring case.
func (s *UserService) Search(ctx context.Context, query string) ([]model.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "Search query is required.")
	}
	users, err := s.repo.SearchUsers(ctx, query, DefaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	out := make([]model.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}
