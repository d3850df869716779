package service

import (
	"context"
	"testing"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStore(client, "friends"), mr
}

func TestFriendServiceAreFriendsReadsIncomingRow(t *testing.T) {
	repo := noopFriendRepo()
	repo.friendEdgeExistsFn = func(_ context.Context, from, to uint) (bool, error) {
		return from == 2 && to == 1, nil
	}
	svc := NewFriendService(repo, nil, 0)
	ctx := context.Background()

	ok, err := svc.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AreFriends(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFriendServiceFriendsIsCached(t *testing.T) {
	store, mr := newTestCache(t)
	repo := noopFriendRepo()
	loads := 0
	repo.listFriendEdgesFn = func(_ context.Context, userID uint) ([]models.Friend, error) {
		loads++
		return []models.Friend{
			{FromUserID: 5, ToUserID: userID},
			{FromUserID: 3, ToUserID: userID},
		}, nil
	}
	repo.deleteFriendPairFn = func(context.Context, uint, uint) (int64, error) { return 2, nil }
	svc := NewFriendService(repo, store, time.Minute)
	ctx := context.Background()

	ids, err := svc.Friends(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 3}, ids)

	ids, err = svc.Friends(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 3}, ids)
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists(cache.FriendsKey(1)))

	removed, err := svc.RemoveFriend(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, mr.Exists(cache.FriendsKey(1)))

	_, err = svc.Friends(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestFriendServiceFriendsEmptyWithoutCache(t *testing.T) {
	svc := NewFriendService(noopFriendRepo(), nil, 0)

	ids, err := svc.Friends(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestFriendServiceRemoveFriendNothingToRemove(t *testing.T) {
	repo := noopFriendRepo()
	repo.deleteFriendPairFn = func(context.Context, uint, uint) (int64, error) { return 0, nil }
	svc := NewFriendService(repo, nil, 0)

	removed, err := svc.RemoveFriend(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFriendServiceStorageFailure(t *testing.T) {
	repo := noopFriendRepo()
	repo.listFriendEdgesFn = func(context.Context, uint) ([]models.Friend, error) {
		return nil, models.NewInternalError(assert.AnError)
	}
	svc := NewFriendService(repo, nil, 0)

	_, err := svc.Friends(context.Background(), 1)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
}
