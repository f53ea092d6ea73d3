package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-social/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Toggle removes the (follower, following) edge if present, otherwise
// inserts it. A concurrent insert of the same edge counts as followed.
func (r *GormFollowRepository) Toggle(ctx context.Context, followerID, followingID string) (bool, error) {
	followed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&domain.FollowModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		model := domain.FollowModel{
			FollowerID:  followerID,
			FollowingID: followingID,
		}
		if _, err := createOnce(tx, &model); err != nil {
			return err
		}
		followed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return followed, nil
}

// Followers returns the ids following userID, oldest edge first.
func (r *GormFollowRepository) Followers(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("following_id = ?", userID).
		Order("id ASC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

// Following returns the ids userID follows, oldest edge first.
func (r *GormFollowRepository) Following(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ?", userID).
		Order("id ASC").
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *GormFollowRepository) Relations(ctx context.Context, userIDs []string) (map[string][]string, map[string][]string, error) {
	followers := make(map[string][]string, len(userIDs))
	following := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return followers, following, nil
	}

	var edges []domain.FollowModel
	err := r.db.WithContext(ctx).
		Where("follower_id IN ? OR following_id IN ?", userIDs, userIDs).
		Order("id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, nil, err
	}

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := wanted[e.FollowingID]; ok {
			followers[e.FollowingID] = append(followers[e.FollowingID], e.FollowerID)
		}
		if _, ok := wanted[e.FollowerID]; ok {
			following[e.FollowerID] = append(following[e.FollowerID], e.FollowingID)
		}
	}
	return followers, following, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*GormFollowRepository)(nil)
