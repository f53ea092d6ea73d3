package repository

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-io-social/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// DeletedUser describes what a cascade delete removed, for cleanup outside
// the transaction.
type DeletedUser struct {
	User         *domain.User
	PostIDs      []string
	PostImages   []domain.Image
	FollowerIDs  []string
	FollowingIDs []string
	// EngagedOwnerIDs are the owners of posts the user liked or commented on.
	EngagedOwnerIDs []string
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByResetToken finds the user holding tokenHash with an expiry after now.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user with every post, like, comment and follow edge
	// that references it, in one transaction.
	Delete(ctx context.Context, id string) (*DeletedUser, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// FollowRepository manages directed follow edges.
type FollowRepository interface {
	// Toggle follows when the edge is absent and unfollows otherwise.
	Toggle(ctx context.Context, followerID, followingID string) (followed bool, err error)
	Followers(ctx context.Context, userID string) ([]string, error)
	Following(ctx context.Context, userID string) ([]string, error)
	// Relations returns followers and following ids keyed by user id.
	Relations(ctx context.Context, userIDs []string) (followers, following map[string][]string, err error)
}

// PostRepository manages posts with their likes and comments.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	// Delete removes the post with its likes and comments.
	Delete(ctx context.Context, id string) error
	UpdateCaption(ctx context.Context, id, caption string) error
	// ListByOwners returns posts of the given owners, newest first.
	ListByOwners(ctx context.Context, ownerIDs []string) ([]*domain.Post, error)
	// ListByOwner returns one owner's posts in creation order.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Post, error)
	IDsByOwners(ctx context.Context, ownerIDs []string) (map[string][]string, error)
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, err error)
	// UpsertComment replaces the user's comment on the post or adds one.
	UpsertComment(ctx context.Context, postID, userID, text string) (created bool, err error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	DeleteCommentByUser(ctx context.Context, postID, userID string) error
}
