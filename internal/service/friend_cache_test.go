package service

import (
	"context"
	"testing"

	"socialgraph/internal/database"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// interleavingRepo runs afterList once, right after a ListFriendEdges read.
type interleavingRepo struct {
	repository.FriendRepository
	afterList func()
}

func (r *interleavingRepo) ListFriendEdges(ctx context.Context, userID uint) ([]models.Friend, error) {
	edges, err := r.FriendRepository.ListFriendEdges(ctx, userID)
	if r.afterList != nil {
		hook := r.afterList
		r.afterList = nil
		hook()
	}
	return edges, err
}

func TestFriendsCacheNotPoisonedByConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	store, mr := newTestCache(t)
	friendRepo := repository.NewFriendRepository(db)
	reads := &interleavingRepo{FriendRepository: friendRepo}
	friends := NewFriendService(reads, store, 0)
	requests := NewFriendRequestService(friendRepo, friends)

	req, err := requests.AddFriend(ctx, alice, bob, "")
	require.NoError(t, err)

	reads.afterList = func() {
		_, err := requests.Accept(ctx, req.ID)
		require.NoError(t, err)
	}

	// This read predates the accept and may be stale itself.
	before, err := friends.Friends(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, before)
	assert.False(t, mr.Exists("friends:2"), "stale list must not be cached")

	ok, err := friends.AreFriends(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := friends.Friends(ctx, bob)
	require.NoError(t, err)
	assert.Contains(t, after, alice)
}
