package repository

import (
	"context"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository defines the interface for directed follow edge operations
type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followeeID uint) (bool, error)
	Exists(ctx context.Context, followerID, followeeID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.Follow, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.Follow, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	Transaction(ctx context.Context, fn func(repo FollowRepository) error) error
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

const followsTable = "follows"

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	defer observability.TrackQuery("create", followsTable)()

	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		return translateError(err, func() *models.AppError {
			return models.NewDuplicateFollowError(follow.FollowerID, follow.FolloweeID)
		})
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uint) (bool, error) {
	defer observability.TrackQuery("delete", followsTable)()

	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	defer observability.TrackQuery("exists", followsTable)()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ListFollowers returns the edges into userID in insertion order.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]models.Follow, error) {
	defer observability.TrackQuery("list_followers", followsTable)()

	follows := []models.Follow{}
	if err := r.db.WithContext(ctx).
		Where("followee_id = ?", userID).
		Order("id ASC").
		Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}

// ListFollowing returns the edges out of userID in insertion order.
func (r *followRepository) ListFollowing(ctx context.Context, userID uint) ([]models.Follow, error) {
	defer observability.TrackQuery("list_following", followsTable)()

	follows := []models.Follow{}
	if err := r.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Order("id ASC").
		Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "count_followers", "followee_id = ?", userID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "count_following", "follower_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, operation, where string, userID uint) (int64, error) {
	defer observability.TrackQuery(operation, followsTable)()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(where, userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) Transaction(ctx context.Context, fn func(repo FollowRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&followRepository{db: tx})
	})
	return translateError(err, nil)
}
