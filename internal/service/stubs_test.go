package service

import (
	"context"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/repository"
)

type friendRepoStub struct {
	createRequestFn        func(context.Context, *models.FriendshipRequest) error
	getRequestByIDFn       func(context.Context, uint) (*models.FriendshipRequest, error)
	getRequestBetweenFn    func(context.Context, uint, uint) (*models.FriendshipRequest, error)
	listRequestsFn         func(context.Context, repository.RequestFilter) ([]models.FriendshipRequest, error)
	countRequestsFn        func(context.Context, repository.RequestFilter) (int64, error)
	markViewedFn           func(context.Context, uint, time.Time) (bool, error)
	setRejectedFn          func(context.Context, uint, time.Time) error
	deleteRequestFn        func(context.Context, uint) (bool, error)
	deleteRequestBetweenFn func(context.Context, uint, uint) (bool, error)
	createFriendPairFn     func(context.Context, uint, uint, time.Time) error
	friendEdgeExistsFn     func(context.Context, uint, uint) (bool, error)
	listFriendEdgesFn      func(context.Context, uint) ([]models.Friend, error)
	deleteFriendPairFn     func(context.Context, uint, uint) (int64, error)
}

func (s *friendRepoStub) CreateRequest(ctx context.Context, req *models.FriendshipRequest) error {
	return s.createRequestFn(ctx, req)
}
func (s *friendRepoStub) GetRequestByID(ctx context.Context, id uint) (*models.FriendshipRequest, error) {
	return s.getRequestByIDFn(ctx, id)
}
func (s *friendRepoStub) GetRequestBetween(ctx context.Context, from, to uint) (*models.FriendshipRequest, error) {
	return s.getRequestBetweenFn(ctx, from, to)
}
func (s *friendRepoStub) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]models.FriendshipRequest, error) {
	return s.listRequestsFn(ctx, filter)
}
func (s *friendRepoStub) CountRequests(ctx context.Context, filter repository.RequestFilter) (int64, error) {
	return s.countRequestsFn(ctx, filter)
}
func (s *friendRepoStub) MarkViewed(ctx context.Context, id uint, at time.Time) (bool, error) {
	return s.markViewedFn(ctx, id, at)
}
func (s *friendRepoStub) SetRejected(ctx context.Context, id uint, at time.Time) error {
	return s.setRejectedFn(ctx, id, at)
}
func (s *friendRepoStub) DeleteRequest(ctx context.Context, id uint) (bool, error) {
	return s.deleteRequestFn(ctx, id)
}
func (s *friendRepoStub) DeleteRequestBetween(ctx context.Context, from, to uint) (bool, error) {
	return s.deleteRequestBetweenFn(ctx, from, to)
}
func (s *friendRepoStub) CreateFriendPair(ctx context.Context, a, b uint, at time.Time) error {
	return s.createFriendPairFn(ctx, a, b, at)
}
func (s *friendRepoStub) FriendEdgeExists(ctx context.Context, from, to uint) (bool, error) {
	return s.friendEdgeExistsFn(ctx, from, to)
}
func (s *friendRepoStub) ListFriendEdges(ctx context.Context, userID uint) ([]models.Friend, error) {
	return s.listFriendEdgesFn(ctx, userID)
}
func (s *friendRepoStub) DeleteFriendPair(ctx context.Context, a, b uint) (int64, error) {
	return s.deleteFriendPairFn(ctx, a, b)
}
func (s *friendRepoStub) Transaction(_ context.Context, fn func(repository.FriendRepository) error) error {
	return fn(s)
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createRequestFn: func(context.Context, *models.FriendshipRequest) error { return nil },
		getRequestByIDFn: func(_ context.Context, id uint) (*models.FriendshipRequest, error) {
			return &models.FriendshipRequest{ID: id, FromUserID: 1, ToUserID: 2}, nil
		},
		getRequestBetweenFn:    func(context.Context, uint, uint) (*models.FriendshipRequest, error) { return nil, nil },
		listRequestsFn:         func(context.Context, repository.RequestFilter) ([]models.FriendshipRequest, error) { return nil, nil },
		countRequestsFn:        func(context.Context, repository.RequestFilter) (int64, error) { return 0, nil },
		markViewedFn:           func(context.Context, uint, time.Time) (bool, error) { return true, nil },
		setRejectedFn:          func(context.Context, uint, time.Time) error { return nil },
		deleteRequestFn:        func(context.Context, uint) (bool, error) { return true, nil },
		deleteRequestBetweenFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		createFriendPairFn:     func(context.Context, uint, uint, time.Time) error { return nil },
		friendEdgeExistsFn:     func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFriendEdgesFn:      func(context.Context, uint) ([]models.Friend, error) { return nil, nil },
		deleteFriendPairFn:     func(context.Context, uint, uint) (int64, error) { return 0, nil },
	}
}

type followRepoStub struct {
	createFn         func(context.Context, *models.Follow) error
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	listFollowersFn  func(context.Context, uint) ([]models.Follow, error)
	listFollowingFn  func(context.Context, uint) ([]models.Follow, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, follow *models.Follow) error {
	return s.createFn(ctx, follow)
}
func (s *followRepoStub) Delete(ctx context.Context, follower, followee uint) (bool, error) {
	return s.deleteFn(ctx, follower, followee)
}
func (s *followRepoStub) Exists(ctx context.Context, follower, followee uint) (bool, error) {
	return s.existsFn(ctx, follower, followee)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.Follow, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.Follow, error) {
	return s.listFollowingFn(ctx, userID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}
func (s *followRepoStub) Transaction(_ context.Context, fn func(repository.FollowRepository) error) error {
	return fn(s)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(context.Context, *models.Follow) error { return nil },
		deleteFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFollowersFn:  func(context.Context, uint) ([]models.Follow, error) { return nil, nil },
		listFollowingFn:  func(context.Context, uint) ([]models.Follow, error) { return nil, nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		countFollowingFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}
