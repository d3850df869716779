package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestServiceAddFriendSelf(t *testing.T) {
	repo := noopFriendRepo()
	repo.createRequestFn = func(context.Context, *models.FriendshipRequest) error {
		t.Fatal("self request must not reach the store")
		return nil
	}
	svc := NewFriendRequestService(repo, nil)

	_, err := svc.AddFriend(context.Background(), 4, 4, "")
	assert.ErrorIs(t, err, models.ErrSelfRelation)
}

func TestFriendRequestServiceAddFriendAlreadyFriends(t *testing.T) {
	repo := noopFriendRepo()
	var checked [2]uint
	repo.friendEdgeExistsFn = func(_ context.Context, from, to uint) (bool, error) {
		checked = [2]uint{from, to}
		return true, nil
	}
	svc := NewFriendRequestService(repo, nil)

	_, err := svc.AddFriend(context.Background(), 1, 2, "")
	assert.ErrorIs(t, err, models.ErrAlreadyFriends)
	// AreFriends(1, 2) reads the row from 2 to 1.
	assert.Equal(t, [2]uint{2, 1}, checked)
}

func TestFriendRequestServiceAddFriendDuplicate(t *testing.T) {
	repo := noopFriendRepo()
	repo.getRequestBetweenFn = func(_ context.Context, from, to uint) (*models.FriendshipRequest, error) {
		return &models.FriendshipRequest{ID: 3, FromUserID: from, ToUserID: to}, nil
	}
	svc := NewFriendRequestService(repo, nil)

	_, err := svc.AddFriend(context.Background(), 1, 2, "again")
	assert.ErrorIs(t, err, models.ErrDuplicateRequest)
}

func TestFriendRequestServiceAddFriendStampsCreation(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	repo := noopFriendRepo()
	var stored *models.FriendshipRequest
	repo.createRequestFn = func(_ context.Context, req *models.FriendshipRequest) error {
		req.ID = 11
		stored = req
		return nil
	}
	svc := NewFriendRequestService(repo, nil, fixedClock(now))

	req, err := svc.AddFriend(context.Background(), 1, 2, "")
	require.NoError(t, err)
	assert.Same(t, stored, req)
	assert.Equal(t, now, req.CreatedAt)
	assert.Equal(t, "", req.Message)
	assert.Nil(t, req.ViewedAt)
	assert.Nil(t, req.RejectedAt)
}

func TestFriendRequestServiceAcceptAppliesAllEffects(t *testing.T) {
	repo := noopFriendRepo()
	repo.getRequestByIDFn = func(_ context.Context, id uint) (*models.FriendshipRequest, error) {
		return &models.FriendshipRequest{ID: id, FromUserID: 1, ToUserID: 2}, nil
	}
	var calls []string
	repo.createFriendPairFn = func(_ context.Context, a, b uint, _ time.Time) error {
		calls = append(calls, "pair")
		assert.Equal(t, uint(1), a)
		assert.Equal(t, uint(2), b)
		return nil
	}
	repo.deleteRequestFn = func(_ context.Context, id uint) (bool, error) {
		calls = append(calls, "delete")
		assert.Equal(t, uint(9), id)
		return true, nil
	}
	repo.deleteRequestBetweenFn = func(_ context.Context, from, to uint) (bool, error) {
		calls = append(calls, "reverse")
		assert.Equal(t, uint(2), from)
		assert.Equal(t, uint(1), to)
		return true, nil
	}
	svc := NewFriendRequestService(repo, NewFriendService(repo, nil, 0))

	req, err := svc.Accept(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), req.ID)
	assert.Equal(t, []string{"pair", "delete", "reverse"}, calls)
}

func TestFriendRequestServiceAcceptPropagatesFailure(t *testing.T) {
	repo := noopFriendRepo()
	boom := models.NewInternalError(errors.New("disk full"))
	repo.deleteRequestFn = func(context.Context, uint) (bool, error) { return false, boom }
	svc := NewFriendRequestService(repo, nil)

	req, err := svc.Accept(context.Background(), 9)
	assert.Nil(t, req)
	assert.ErrorIs(t, err, boom)
}

func TestFriendRequestServiceAcceptMissing(t *testing.T) {
	repo := noopFriendRepo()
	repo.getRequestByIDFn = func(_ context.Context, id uint) (*models.FriendshipRequest, error) {
		return nil, models.NewNotFoundError("FriendshipRequest", id)
	}
	repo.createFriendPairFn = func(context.Context, uint, uint, time.Time) error {
		t.Fatal("no edges for a missing request")
		return nil
	}
	svc := NewFriendRequestService(repo, nil)

	_, err := svc.Accept(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFriendRequestServiceReject(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := noopFriendRepo()
	var rejectedAt time.Time
	repo.setRejectedFn = func(_ context.Context, _ uint, at time.Time) error {
		rejectedAt = at
		return nil
	}
	svc := NewFriendRequestService(repo, nil, fixedClock(now))

	req, err := svc.Reject(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, req.RejectedAt)
	assert.Equal(t, now, *req.RejectedAt)
	assert.Equal(t, now, rejectedAt)
	assert.Equal(t, models.RequestStateRejected, req.State())
}

func TestFriendRequestServiceCancelMissingIsSuccess(t *testing.T) {
	repo := noopFriendRepo()
	repo.deleteRequestFn = func(context.Context, uint) (bool, error) { return false, nil }
	svc := NewFriendRequestService(repo, nil)

	deleted, err := svc.Cancel(context.Background(), 77)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFriendRequestServiceMarkViewedIdempotent(t *testing.T) {
	first := time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC)
	repo := noopFriendRepo()
	repo.getRequestByIDFn = func(_ context.Context, id uint) (*models.FriendshipRequest, error) {
		return &models.FriendshipRequest{ID: id, FromUserID: 1, ToUserID: 2, ViewedAt: &first}, nil
	}
	repo.markViewedFn = func(context.Context, uint, time.Time) (bool, error) {
		t.Fatal("viewed request must not be stamped again")
		return false, nil
	}
	svc := NewFriendRequestService(repo, nil, fixedClock(first.Add(time.Hour)))

	req, err := svc.MarkViewed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, *req.ViewedAt)
}

func TestFriendRequestServiceMarkViewedLostRace(t *testing.T) {
	winner := time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC)
	repo := noopFriendRepo()
	loads := 0
	repo.getRequestByIDFn = func(_ context.Context, id uint) (*models.FriendshipRequest, error) {
		loads++
		req := &models.FriendshipRequest{ID: id, FromUserID: 1, ToUserID: 2}
		if loads > 1 {
			req.ViewedAt = &winner
		}
		return req, nil
	}
	repo.markViewedFn = func(context.Context, uint, time.Time) (bool, error) { return false, nil }
	svc := NewFriendRequestService(repo, nil, fixedClock(winner.Add(time.Minute)))

	req, err := svc.MarkViewed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, winner, *req.ViewedAt)
}

func TestFriendRequestServiceQueryFilters(t *testing.T) {
	repo := noopFriendRepo()
	var filters []repository.RequestFilter
	repo.listRequestsFn = func(_ context.Context, f repository.RequestFilter) ([]models.FriendshipRequest, error) {
		filters = append(filters, f)
		return nil, nil
	}
	repo.countRequestsFn = func(_ context.Context, f repository.RequestFilter) (int64, error) {
		filters = append(filters, f)
		return 3, nil
	}
	svc := NewFriendRequestService(repo, nil)
	ctx := context.Background()

	_, _ = svc.Requests(ctx, 1)
	_, _ = svc.SentRequests(ctx, 1)
	_, _ = svc.UnreadRequests(ctx, 1)
	_, _ = svc.ReadRequests(ctx, 1)
	_, _ = svc.RejectedRequests(ctx, 1)
	_, _ = svc.UnrejectedRequests(ctx, 1)
	unread, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)
	_, _ = svc.UnrejectedCount(ctx, 1)

	require.Len(t, filters, 8)
	assert.Equal(t, repository.RequestFilter{ToUserID: 1}, filters[0])
	assert.Equal(t, repository.RequestFilter{FromUserID: 1}, filters[1])
	assert.False(t, *filters[2].Viewed)
	assert.True(t, *filters[3].Viewed)
	assert.True(t, *filters[4].Rejected)
	assert.False(t, *filters[5].Rejected)
	assert.False(t, *filters[6].Viewed)
	assert.False(t, *filters[7].Rejected)
	for _, f := range filters[2:] {
		if f.FromUserID != 0 {
			t.Fatalf("projection scoped to sender: %+v", f)
		}
	}
}
