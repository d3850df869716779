package service

import (
	"context"
	"log/slog"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
)

const followComponent = "follows"

// FollowService manages directed follow edges.
type FollowService struct {
	followRepo repository.FollowRepository
	now        func() time.Time
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, opts ...Option) *FollowService {
	o := newOptions(opts)
	return &FollowService{followRepo: followRepo, now: o.now}
}

// AddFollower records that followerID follows followeeID.
func (s *FollowService) AddFollower(ctx context.Context, followerID, followeeID uint) (follow *models.Follow, err error) {
	ctx, done := track(ctx, followComponent, "add_follower", observability.UserAttrs(followerID, followeeID)...)
	defer func() { done(err) }()

	if followerID == followeeID {
		return nil, models.NewSelfRelationError("Users cannot follow themselves")
	}

	follow = &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.now(),
	}
	// Duplicates are reported by the pair index.
	if err := s.followRepo.Create(ctx, follow); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Follower added",
		slog.Uint64("follower", uint64(followerID)),
		slog.Uint64("followee", uint64(followeeID)),
	)
	return follow, nil
}

// RemoveFollower deletes the edge and reports whether it existed.
func (s *FollowService) RemoveFollower(ctx context.Context, followerID, followeeID uint) (removed bool, err error) {
	ctx, done := track(ctx, followComponent, "remove_follower", observability.UserAttrs(followerID, followeeID)...)
	defer func() { done(err) }()

	return s.followRepo.Delete(ctx, followerID, followeeID)
}

// Follows reports whether followerID follows followeeID.
func (s *FollowService) Follows(ctx context.Context, followerID, followeeID uint) (ok bool, err error) {
	ctx, done := track(ctx, followComponent, "follows", observability.UserAttrs(followerID, followeeID)...)
	defer func() { done(err) }()

	return s.followRepo.Exists(ctx, followerID, followeeID)
}

// Followers returns the users following userID, oldest edge first.
func (s *FollowService) Followers(ctx context.Context, userID uint) (ids []uint, err error) {
	ctx, done := track(ctx, followComponent, "followers", observability.UserAttrs(userID, 0)...)
	defer func() { done(err) }()

	edges, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userIDs(edges, func(f models.Follow) uint { return f.FollowerID }), nil
}

// Following returns the users userID follows, oldest edge first.
func (s *FollowService) Following(ctx context.Context, userID uint) (ids []uint, err error) {
	ctx, done := track(ctx, followComponent, "following", observability.UserAttrs(userID, 0)...)
	defer func() { done(err) }()

	edges, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userIDs(edges, func(f models.Follow) uint { return f.FolloweeID }), nil
}

// FollowCounts returns follower and following totals for userID.
func (s *FollowService) FollowCounts(ctx context.Context, userID uint) (counts models.FollowCounts, err error) {
	ctx, done := track(ctx, followComponent, "follow_counts", observability.UserAttrs(userID, 0)...)
	defer func() { done(err) }()

	if counts.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return models.FollowCounts{}, err
	}
	if counts.Following, err = s.followRepo.CountFollowing(ctx, userID); err != nil {
		return models.FollowCounts{}, err
	}
	return counts, nil
}
