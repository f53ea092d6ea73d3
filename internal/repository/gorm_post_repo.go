package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db         *gorm.DB
	postIDs    idgen.Generator
	commentIDs idgen.Generator
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB, postIDs, commentIDs idgen.Generator) *GormPostRepository {
	return &GormPostRepository{db: db, postIDs: postIDs, commentIDs: commentIDs}
}

// Create creates a new post.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	id, err := r.postIDs.Generate()
	if err != nil {
		return err
	}
	post.ID = id

	model := domain.PostToModel(post)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	post.CreatedAt = model.CreatedAt
	post.UpdatedAt = model.UpdatedAt
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []domain.Comment{}
	}
	return nil
}

// GetByID retrieves a post with its likes and comments.
func (r *GormPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var model domain.PostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	posts := []*domain.Post{model.ToDomain()}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts[0], nil
}

// Delete removes the post with its likes and comments.
func (r *GormPostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.LikeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.CommentModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.PostModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

func (r *GormPostRepository) UpdateCaption(ctx context.Context, id, caption string) error {
	result := r.db.WithContext(ctx).Model(&domain.PostModel{}).
		Where("id = ?", id).
		Update("caption", caption)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *GormPostRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*domain.Post, error) {
	return r.list(ctx, ownerIDs, "created_at DESC, id DESC")
}

func (r *GormPostRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Post, error) {
	return r.list(ctx, []string{ownerID}, "created_at ASC, id ASC")
}

func (r *GormPostRepository) list(ctx context.Context, ownerIDs []string, order string) ([]*domain.Post, error) {
	if len(ownerIDs) == 0 {
		return []*domain.Post{}, nil
	}

	var models []domain.PostModel
	if err := r.db.WithContext(ctx).Where("owner_id IN ?", ownerIDs).Order(order).Find(&models).Error; err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(models))
	for i := range models {
		posts = append(posts, models[i].ToDomain())
	}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// IDsByOwners returns each owner's post ids in creation order.
func (r *GormPostRepository) IDsByOwners(ctx context.Context, ownerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	var models []domain.PostModel
	err := r.db.WithContext(ctx).
		Select("id", "owner_id").
		Where("owner_id IN ?", ownerIDs).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.OwnerID] = append(out[m.OwnerID], m.ID)
	}
	return out, nil
}

// ToggleLike removes the user's like if present, otherwise adds it.
func (r *GormPostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.LikeModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		like := domain.LikeModel{PostID: postID, UserID: userID}
		if _, err := createOnce(tx, &like); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *GormPostRepository) UpsertComment(ctx context.Context, postID, userID, text string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		updated, err := updateComment(tx, postID, userID, text)
		if err != nil || updated {
			return err
		}

		id, err := r.commentIDs.Generate()
		if err != nil {
			return err
		}
		comment := domain.CommentModel{ID: id, PostID: postID, UserID: userID, Comment: text}
		inserted, err := createOnce(tx, &comment)
		if err != nil {
			return err
		}
		if !inserted {
			// Lost the race to a concurrent insert; the row exists now.
			_, err = updateComment(tx, postID, userID, text)
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func updateComment(tx *gorm.DB, postID, userID, text string) (bool, error) {
	result := tx.Model(&domain.CommentModel{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Update("comment", text)
	return result.RowsAffected > 0, result.Error
}

// DeleteComment removes the comment with commentID from the post.
func (r *GormPostRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	return r.deleteComment(ctx, "post_id = ? AND id = ?", postID, commentID)
}

// DeleteCommentByUser removes userID's comment from the post.
func (r *GormPostRepository) DeleteCommentByUser(ctx context.Context, postID, userID string) error {
	return r.deleteComment(ctx, "post_id = ? AND user_id = ?", postID, userID)
}

func (r *GormPostRepository) deleteComment(ctx context.Context, query string, args ...interface{}) error {
	result := r.db.WithContext(ctx).Where(query, args...).Delete(&domain.CommentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// hydrate attaches likes and comments to posts with two queries.
func (r *GormPostRepository) hydrate(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	var likes []domain.LikeModel
	if err := r.db.WithContext(ctx).Where("post_id IN ?", ids).Order("id ASC").Find(&likes).Error; err != nil {
		return err
	}
	for _, l := range likes {
		p := byID[l.PostID]
		p.Likes = append(p.Likes, l.UserID)
	}

	var comments []domain.CommentModel
	if err := r.db.WithContext(ctx).Where("post_id IN ?", ids).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return err
	}
	for i := range comments {
		p := byID[comments[i].PostID]
		p.Comments = append(p.Comments, comments[i].ToDomain())
	}
	return nil
}

func postExists(tx *gorm.DB, postID string) error {
	var count int64
	if err := tx.Model(&domain.PostModel{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Ensure interface is satisfied at compile time.
var _ PostRepository = (*GormPostRepository)(nil)
