package service

import (
	"context"
	"log/slog"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const requestComponent = "friend_requests"

// FriendRequestService runs the friendship request lifecycle.
type FriendRequestService struct {
	friendRepo repository.FriendRepository
	friends    *FriendService
	now        func() time.Time
}

// NewFriendRequestService returns a new FriendRequestService. friends receives
// cache invalidations when a request is accepted.
func NewFriendRequestService(friendRepo repository.FriendRepository, friends *FriendService, opts ...Option) *FriendRequestService {
	o := newOptions(opts)
	return &FriendRequestService{
		friendRepo: friendRepo,
		friends:    friends,
		now:        o.now,
	}
}

func requestAttr(id uint) attribute.KeyValue {
	return attribute.Int64("friendship_request.id", int64(id))
}

// AddFriend creates a pending request from fromUserID to toUserID.
func (s *FriendRequestService) AddFriend(ctx context.Context, fromUserID, toUserID uint, message string) (req *models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, "add_friend", observability.UserAttrs(fromUserID, toUserID)...)
	defer func() { done(err) }()

	if fromUserID == toUserID {
		return nil, models.NewSelfRelationError("Users cannot befriend themselves")
	}

	req = &models.FriendshipRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Message:    message,
		CreatedAt:  s.now(),
	}

	err = s.friendRepo.Transaction(ctx, func(tx repository.FriendRepository) error {
		// Same row AreFriends(fromUserID, toUserID) reads.
		friends, err := tx.FriendEdgeExists(ctx, toUserID, fromUserID)
		if err != nil {
			return err
		}
		if friends {
			return models.NewAlreadyFriendsError()
		}

		existing, err := tx.GetRequestBetween(ctx, fromUserID, toUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewDuplicateRequestError()
		}

		// The pair index still decides concurrent creators.
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Accept turns the request into a mutual friendship. Both friend rows are
// inserted, the request is deleted and any reverse request is discarded, all
// in one transaction. It returns the request as it was before deletion.
func (s *FriendRequestService) Accept(ctx context.Context, requestID uint) (req *models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, "accept", requestAttr(requestID))
	defer func() { done(err) }()

	now := s.now()
	var superseded bool
	err = s.friendRepo.Transaction(ctx, func(tx repository.FriendRepository) error {
		var err error
		req, err = tx.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}

		if err := tx.CreateFriendPair(ctx, req.FromUserID, req.ToUserID, now); err != nil {
			return err
		}
		if _, err := tx.DeleteRequest(ctx, req.ID); err != nil {
			return err
		}
		superseded, err = tx.DeleteRequestBetween(ctx, req.ToUserID, req.FromUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.friends != nil {
		s.friends.InvalidateFriends(ctx, req.FromUserID, req.ToUserID)
	}
	middleware.Logger.InfoContext(ctx, "Friend request accepted",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("from_user", uint64(req.FromUserID)),
		slog.Uint64("to_user", uint64(req.ToUserID)),
		slog.Bool("reverse_request_discarded", superseded),
	)
	return req, nil
}

// Reject stamps rejected_at. The request stays stored and can still be accepted or cancelled.
func (s *FriendRequestService) Reject(ctx context.Context, requestID uint) (req *models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, "reject", requestAttr(requestID))
	defer func() { done(err) }()

	now := s.now()
	err = s.friendRepo.Transaction(ctx, func(tx repository.FriendRepository) error {
		var err error
		req, err = tx.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := tx.SetRejected(ctx, requestID, now); err != nil {
			return err
		}
		req.RejectedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel deletes the request whatever its state. A request that is already
// gone is not an error; the result reports whether a row was deleted.
func (s *FriendRequestService) Cancel(ctx context.Context, requestID uint) (deleted bool, err error) {
	ctx, done := track(ctx, requestComponent, "cancel", requestAttr(requestID))
	defer func() { done(err) }()

	return s.friendRepo.DeleteRequest(ctx, requestID)
}

// MarkViewed stamps viewed_at on first view. Later calls leave it unchanged.
func (s *FriendRequestService) MarkViewed(ctx context.Context, requestID uint) (req *models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, "mark_viewed", requestAttr(requestID))
	defer func() { done(err) }()

	now := s.now()
	err = s.friendRepo.Transaction(ctx, func(tx repository.FriendRepository) error {
		var err error
		req, err = tx.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.IsViewed() {
			return nil
		}

		changed, err := tx.MarkViewed(ctx, requestID, now)
		if err != nil {
			return err
		}
		if changed {
			req.ViewedAt = &now
			return nil
		}
		// A concurrent viewer won; report its stamp.
		req, err = tx.GetRequestByID(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetRequest loads a request without side effects.
func (s *FriendRequestService) GetRequest(ctx context.Context, requestID uint) (req *models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, "get_request", requestAttr(requestID))
	defer func() { done(err) }()

	return s.friendRepo.GetRequestByID(ctx, requestID)
}

func (s *FriendRequestService) list(ctx context.Context, operation string, filter repository.RequestFilter) (reqs []models.FriendshipRequest, err error) {
	ctx, done := track(ctx, requestComponent, operation)
	defer func() { done(err) }()

	return s.friendRepo.ListRequests(ctx, filter)
}

func (s *FriendRequestService) count(ctx context.Context, operation string, filter repository.RequestFilter) (n int64, err error) {
	ctx, done := track(ctx, requestComponent, operation)
	defer func() { done(err) }()

	return s.friendRepo.CountRequests(ctx, filter)
}

func flag(v bool) *bool {
	return &v
}

// Requests returns every stored request addressed to userID, pending or rejected.
func (s *FriendRequestService) Requests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "requests", repository.RequestFilter{ToUserID: userID})
}

// SentRequests returns every stored request sent by userID.
func (s *FriendRequestService) SentRequests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "sent_requests", repository.RequestFilter{FromUserID: userID})
}

// UnreadRequests returns requests to userID that were never viewed.
func (s *FriendRequestService) UnreadRequests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "unread_requests", repository.RequestFilter{ToUserID: userID, Viewed: flag(false)})
}

// UnreadCount counts UnreadRequests.
func (s *FriendRequestService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.count(ctx, "unread_count", repository.RequestFilter{ToUserID: userID, Viewed: flag(false)})
}

// ReadRequests returns requests to userID that were viewed.
func (s *FriendRequestService) ReadRequests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "read_requests", repository.RequestFilter{ToUserID: userID, Viewed: flag(true)})
}

// RejectedRequests returns requests to userID that were rejected.
func (s *FriendRequestService) RejectedRequests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "rejected_requests", repository.RequestFilter{ToUserID: userID, Rejected: flag(true)})
}

// UnrejectedRequests returns requests to userID that were not rejected.
func (s *FriendRequestService) UnrejectedRequests(ctx context.Context, userID uint) ([]models.FriendshipRequest, error) {
	return s.list(ctx, "unrejected_requests", repository.RequestFilter{ToUserID: userID, Rejected: flag(false)})
}

// UnrejectedCount counts UnrejectedRequests.
func (s *FriendRequestService) UnrejectedCount(ctx context.Context, userID uint) (int64, error) {
	return s.count(ctx, "unrejected_count", repository.RequestFilter{ToUserID: userID, Rejected: flag(false)})
}
