// Package repository provides data access layer implementations for the relationship store.
package repository

import (
	"context"
	"errors"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"gorm.io/gorm"
)

// RequestFilter scopes a friendship request query. Exactly one of ToUserID
// (recipient) or FromUserID (sender) is normally set.
type RequestFilter struct {
	ToUserID   uint
	FromUserID uint
	// Viewed and Rejected filter on viewed_at / rejected_at being set when non-nil.
	Viewed   *bool
	Rejected *bool
}

// FriendRepository defines the interface for friendship request and friend edge operations
type FriendRepository interface {
	CreateRequest(ctx context.Context, req *models.FriendshipRequest) error
	GetRequestByID(ctx context.Context, id uint) (*models.FriendshipRequest, error)
	GetRequestBetween(ctx context.Context, fromUserID, toUserID uint) (*models.FriendshipRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.FriendshipRequest, error)
	CountRequests(ctx context.Context, filter RequestFilter) (int64, error)
	MarkViewed(ctx context.Context, id uint, at time.Time) (bool, error)
	SetRejected(ctx context.Context, id uint, at time.Time) error
	DeleteRequest(ctx context.Context, id uint) (bool, error)
	DeleteRequestBetween(ctx context.Context, fromUserID, toUserID uint) (bool, error)

	CreateFriendPair(ctx context.Context, userA, userB uint, at time.Time) error
	FriendEdgeExists(ctx context.Context, fromUserID, toUserID uint) (bool, error)
	ListFriendEdges(ctx context.Context, userID uint) ([]models.Friend, error)
	DeleteFriendPair(ctx context.Context, userA, userB uint) (int64, error)

	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo FriendRepository) error) error
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

const (
	requestsTable = "friendship_requests"
	friendsTable  = "friends"
)

func (r *friendRepository) CreateRequest(ctx context.Context, req *models.FriendshipRequest) error {
	defer observability.TrackQuery("create", requestsTable)()

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return translateError(err, models.NewDuplicateRequestError)
	}
	return nil
}

func (r *friendRepository) GetRequestByID(ctx context.Context, id uint) (*models.FriendshipRequest, error) {
	defer observability.TrackQuery("get", requestsTable)()

	var req models.FriendshipRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FriendshipRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// GetRequestBetween returns the request for the ordered pair, or nil when none exists.
func (r *friendRepository) GetRequestBetween(ctx context.Context, fromUserID, toUserID uint) (*models.FriendshipRequest, error) {
	defer observability.TrackQuery("get_between", requestsTable)()

	var reqs []models.FriendshipRequest
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Limit(1).
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

func (r *friendRepository) scoped(ctx context.Context, filter RequestFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.FriendshipRequest{})
	if filter.ToUserID != 0 {
		q = q.Where("to_user_id = ?", filter.ToUserID)
	}
	if filter.FromUserID != 0 {
		q = q.Where("from_user_id = ?", filter.FromUserID)
	}
	if filter.Viewed != nil {
		if *filter.Viewed {
			q = q.Where("viewed_at IS NOT NULL")
		} else {
			q = q.Where("viewed_at IS NULL")
		}
	}
	if filter.Rejected != nil {
		if *filter.Rejected {
			q = q.Where("rejected_at IS NOT NULL")
		} else {
			q = q.Where("rejected_at IS NULL")
		}
	}
	return q
}

func (r *friendRepository) ListRequests(ctx context.Context, filter RequestFilter) ([]models.FriendshipRequest, error) {
	defer observability.TrackQuery("list", requestsTable)()

	reqs := []models.FriendshipRequest{}
	if err := r.scoped(ctx, filter).Order("id ASC").Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *friendRepository) CountRequests(ctx context.Context, filter RequestFilter) (int64, error) {
	defer observability.TrackQuery("count", requestsTable)()

	var count int64
	if err := r.scoped(ctx, filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// MarkViewed stamps viewed_at only while it is unset and reports whether a row changed.
func (r *friendRepository) MarkViewed(ctx context.Context, id uint, at time.Time) (bool, error) {
	defer observability.TrackQuery("mark_viewed", requestsTable)()

	result := r.db.WithContext(ctx).
		Model(&models.FriendshipRequest{}).
		Where("id = ? AND viewed_at IS NULL", id).
		Update("viewed_at", at)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) SetRejected(ctx context.Context, id uint, at time.Time) error {
	defer observability.TrackQuery("reject", requestsTable)()

	result := r.db.WithContext(ctx).
		Model(&models.FriendshipRequest{}).
		Where("id = ?", id).
		Update("rejected_at", at)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("FriendshipRequest", id)
	}
	return nil
}

func (r *friendRepository) DeleteRequest(ctx context.Context, id uint) (bool, error) {
	defer observability.TrackQuery("delete", requestsTable)()

	result := r.db.WithContext(ctx).Delete(&models.FriendshipRequest{}, id)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) DeleteRequestBetween(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	defer observability.TrackQuery("delete_between", requestsTable)()

	result := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Delete(&models.FriendshipRequest{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CreateFriendPair inserts both directed rows of a friendship in one statement.
func (r *friendRepository) CreateFriendPair(ctx context.Context, userA, userB uint, at time.Time) error {
	defer observability.TrackQuery("create_pair", friendsTable)()

	edges := []models.Friend{
		{FromUserID: userA, ToUserID: userB, CreatedAt: at},
		{FromUserID: userB, ToUserID: userA, CreatedAt: at},
	}
	if err := r.db.WithContext(ctx).Create(&edges).Error; err != nil {
		return translateError(err, models.NewAlreadyFriendsError)
	}
	return nil
}

func (r *friendRepository) FriendEdgeExists(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	defer observability.TrackQuery("exists", friendsTable)()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ListFriendEdges returns the rows pointing at userID in insertion order.
func (r *friendRepository) ListFriendEdges(ctx context.Context, userID uint) ([]models.Friend, error) {
	defer observability.TrackQuery("list", friendsTable)()

	edges := []models.Friend{}
	if err := r.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("id ASC").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// DeleteFriendPair removes the rows in both directions with a single statement.
func (r *friendRepository) DeleteFriendPair(ctx context.Context, userA, userB uint) (int64, error) {
	defer observability.TrackQuery("delete_pair", friendsTable)()

	result := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Delete(&models.Friend{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *friendRepository) Transaction(ctx context.Context, fn func(repo FriendRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&friendRepository{db: tx})
	})
	return translateError(err, nil)
}
