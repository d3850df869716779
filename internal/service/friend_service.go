package service

import (
	"context"
	"log/slog"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
)

const friendComponent = "friends"

// FriendService answers friend-graph queries and removes friendships.
type FriendService struct {
	friendRepo repository.FriendRepository
	cache      *cache.Store
	cacheTTL   time.Duration
}

// NewFriendService returns a new FriendService. store may be nil to disable caching.
func NewFriendService(friendRepo repository.FriendRepository, store *cache.Store, cacheTTL time.Duration) *FriendService {
	if cacheTTL <= 0 {
		cacheTTL = cache.FriendsTTL
	}
	return &FriendService{
		friendRepo: friendRepo,
		cache:      store,
		cacheTTL:   cacheTTL,
	}
}

// AreFriends reports whether user2 is recorded as a friend of user1, reading
// the same incoming row that Friends(user1) lists.
func (s *FriendService) AreFriends(ctx context.Context, user1, user2 uint) (ok bool, err error) {
	ctx, done := track(ctx, friendComponent, "are_friends", observability.UserAttrs(user1, user2)...)
	defer func() { done(err) }()

	return s.friendRepo.FriendEdgeExists(ctx, user2, user1)
}

// Friends returns the IDs of userID's friends in the order the friendships were created.
func (s *FriendService) Friends(ctx context.Context, userID uint) (ids []uint, err error) {
	ctx, done := track(ctx, friendComponent, "friends", observability.UserAttrs(userID, 0)...)
	defer func() { done(err) }()

	ids = []uint{}
	err = s.cache.CacheAside(ctx, cache.FriendsKey(userID), &ids, s.cacheTTL, func() error {
		edges, err := s.friendRepo.ListFriendEdges(ctx, userID)
		if err != nil {
			return err
		}
		ids = userIDs(edges, func(e models.Friend) uint { return e.FromUserID })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FriendEdges returns the rows behind Friends, including their creation time.
func (s *FriendService) FriendEdges(ctx context.Context, userID uint) (edges []models.Friend, err error) {
	ctx, done := track(ctx, friendComponent, "friend_edges", observability.UserAttrs(userID, 0)...)
	defer func() { done(err) }()

	return s.friendRepo.ListFriendEdges(ctx, userID)
}

// RemoveFriend deletes both directed rows between userA and userB.
// It reports whether any row existed.
func (s *FriendService) RemoveFriend(ctx context.Context, userA, userB uint) (removed bool, err error) {
	ctx, done := track(ctx, friendComponent, "remove_friend", observability.UserAttrs(userA, userB)...)
	defer func() { done(err) }()

	rows, err := s.friendRepo.DeleteFriendPair(ctx, userA, userB)
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	s.InvalidateFriends(ctx, userA, userB)
	middleware.Logger.InfoContext(ctx, "Friendship removed",
		slog.Uint64("user_a", uint64(userA)),
		slog.Uint64("user_b", uint64(userB)),
		slog.Int64("rows", rows),
	)
	return true, nil
}

// InvalidateFriends drops cached friend lists for the given users.
func (s *FriendService) InvalidateFriends(ctx context.Context, userIDs ...uint) {
	s.cache.InvalidateFriends(ctx, userIDs...)
}
