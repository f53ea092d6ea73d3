package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db  *gorm.DB
	ids idgen.Generator
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB, ids idgen.Generator) *GormUserRepository {
	return &GormUserRepository{db: db, ids: ids}
}

// Create creates a new user.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := r.ids.Generate()
	if err != nil {
		return err
	}
	user.ID = id

	model := domain.UserToModel(user)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return r.handleError(result.Error)
	}

	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// Exists reports whether a user with id is stored.
func (r *GormUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.UserModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByEmail retrieves a user by email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	if tokenHash == "" {
		return nil, ErrUserNotFound
	}
	return r.first(ctx, "reset_password_token = ? AND reset_password_expire > ?", tokenHash, now.UTC())
}

func (r *GormUserRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var model domain.UserModel
	result := r.db.WithContext(ctx).Where(query, args...).First(&model)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List returns every user in registration order.
func (r *GormUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var models []domain.UserModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toUsers(models), nil
}

// ListByIDs returns the users that exist among ids. Order is not preserved.
func (r *GormUserRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	var models []domain.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return toUsers(models), nil
}

// Search matches query as a case-insensitive substring of name or email.
func (r *GormUserRepository) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*domain.User{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + query + "%"
	var models []domain.UserModel
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toUsers(models), nil
}

// Update persists every mutable column of user.
func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	model := domain.UserToModel(user)
	result := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":                  model.Name,
			"email":                 model.Email,
			"password_hash":         model.PasswordHash,
			"avatar_public_id":      model.AvatarPublicID,
			"avatar_url":            model.AvatarURL,
			"reset_password_token":  model.ResetPasswordToken,
			"reset_password_expire": model.ResetPasswordExpire,
		})
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	var updated domain.UserModel
	if err := r.db.WithContext(ctx).Select("updated_at").First(&updated, "id = ?", user.ID).Error; err == nil {
		user.UpdatedAt = updated.UpdatedAt
	}
	return nil
}

// Delete removes the user and everything that references it.
func (r *GormUserRepository) Delete(ctx context.Context, id string) (*DeletedUser, error) {
	var out DeletedUser
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model domain.UserModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		out.User = model.ToDomain()

		var posts []domain.PostModel
		if err := tx.Select("id", "image_public_id", "image_url").Where("owner_id = ?", id).Find(&posts).Error; err != nil {
			return err
		}
		for _, p := range posts {
			out.PostIDs = append(out.PostIDs, p.ID)
			if p.ImagePublicID != "" {
				out.PostImages = append(out.PostImages, domain.Image{PublicID: p.ImagePublicID, URL: p.ImageURL})
			}
		}

		if len(out.PostIDs) > 0 {
			if err := tx.Where("post_id IN ?", out.PostIDs).Delete(&domain.LikeModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", out.PostIDs).Delete(&domain.CommentModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", out.PostIDs).Delete(&domain.PostModel{}).Error; err != nil {
				return err
			}
		}

		liked := tx.Model(&domain.LikeModel{}).Select("post_id").Where("user_id = ?", id)
		commented := tx.Model(&domain.CommentModel{}).Select("post_id").Where("user_id = ?", id)
		if err := tx.Model(&domain.PostModel{}).Distinct("owner_id").
			Where("id IN (?) OR id IN (?)", liked, commented).
			Pluck("owner_id", &out.EngagedOwnerIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&domain.LikeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.CommentModel{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.FollowModel{}).Where("following_id = ?", id).Pluck("follower_id", &out.FollowerIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.FollowModel{}).Where("follower_id = ?", id).Pluck("following_id", &out.FollowingIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&domain.FollowModel{}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.UserModel{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed.
func (r *GormUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Where("reset_password_expire IS NOT NULL AND reset_password_expire <= ?", now.UTC()).
		Updates(map[string]interface{}{
			"reset_password_token":  "",
			"reset_password_expire": nil,
		})
	return result.RowsAffected, result.Error
}

// handleError converts database-specific errors to domain errors.
func (r *GormUserRepository) handleError(err error) error {
	if isUniqueViolation(err) {
		return ErrEmailExists
	}

	errStr := err.Error()

	// PostgreSQL / SQLite unique constraint violation
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		if strings.Contains(errStr, "email") {
			return ErrEmailExists
		}
	}

	// MySQL unique constraint violation
	if strings.Contains(errStr, "Duplicate entry") && strings.Contains(errStr, "email") {
		return ErrEmailExists
	}

	return err
}

func toUsers(models []domain.UserModel) []*domain.User {
	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToDomain())
	}
	return users
}

var _ UserRepository = (*GormUserRepository)(nil)

// isUniqueViolation reports whether err is a unique-constraint violation.
// GORM v1.25+ with TranslateError wraps these as gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// createOnce inserts value inside a savepoint so that a unique violation
// leaves the surrounding transaction usable. inserted is false on conflict.
func createOnce(tx *gorm.DB, value interface{}) (inserted bool, err error) {
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(value).Error
	})
	if isUniqueViolation(err) {
		return false, nil
	}
	return err == nil, err
}

// isNotFound checks if the error is a "record not found" error.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
