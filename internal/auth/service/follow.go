package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// FollowService manages the follower graph.
type FollowService struct {
	Store store.Store
	Users *UserService
	Guard *Guard
	Now   func() time.Time
}

// Follow makes actor follow the identity named username and returns it.
// Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	target, err := s.target(ctx, actor, ActionFollow, username)
	if err != nil {
		return nil, err
	}
	err = s.Store.Follows().Follow(ctx, domain.Follow{
		FollowerID: actor.ID,
		FollowedID: target.ID,
		CreatedAt:  clock(s.Now),
	})
	if err != nil {
		return nil, err
	}
	slogx.FromContext(ctx).Info("follow",
		slog.String("user_id", actor.ID),
		slog.String("target_id", target.ID))
	return target, nil
}

// Unfollow removes the edge from actor to username. Removing a missing edge
// is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	target, err := s.target(ctx, actor, ActionUnfollow, username)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Follows().Unfollow(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	slogx.FromContext(ctx).Info("unfollow",
		slog.String("user_id", actor.ID),
		slog.String("target_id", target.ID))
	return target, nil
}

// target runs the authentication gate, resolves username and then applies
// the self-action rule, in that order.
func (s *FollowService) target(ctx context.Context, actor *domain.Identity, action Action, username string) (*domain.Identity, error) {
	if err := s.Guard.Authorize(actor, action, nil); err != nil {
		return nil, err
	}
	target, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.Authorize(actor, action, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.Store.Follows().IsFollowing(ctx, followerID, followedID)
}

// Followers pages through the identities following userID.
func (s *FollowService) Followers(ctx context.Context, userID string, page, perPage int) (Page, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return Page{}, err
	}
	page, perPage, offset := normalizePage(page, perPage)
	total, err := s.Store.Follows().CountFollowers(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	items, err := s.Store.Follows().Followers(ctx, userID, offset, perPage)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, page, perPage, total), nil
}

// Following pages through the identities userID follows.
func (s *FollowService) Following(ctx context.Context, userID string, page, perPage int) (Page, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return Page{}, err
	}
	page, perPage, offset := normalizePage(page, perPage)
	total, err := s.Store.Follows().CountFollowing(ctx, userID)
	if err != nil {
		return Page{}, err
	}
	items, err := s.Store.Follows().Following(ctx, userID, offset, perPage)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, page, perPage, total), nil
}

// Counts returns how many identities follow userID and how many it follows.
func (s *FollowService) Counts(ctx context.Context, userID string) (followers, following int, err error) {
	if followers, err = s.Store.Follows().CountFollowers(ctx, userID); err != nil {
		return 0, 0, err
	}
	if following, err = s.Store.Follows().CountFollowing(ctx, userID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
