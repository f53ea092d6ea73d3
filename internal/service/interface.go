package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/pkg/jwt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrWrongPassword     = errors.New("incorrect password")
	ErrSelfFollow        = errors.New("cannot follow yourself")
	ErrMissingFields     = errors.New("missing required fields")
	ErrInvalidResetToken = errors.New("reset token is invalid or has expired")
	ErrMailDelivery      = errors.New("mail delivery failed")
	ErrPasswordTooLong   = errors.New("password is too long")

	ErrPostNotFound       = errors.New("post not found")
	ErrNotPostOwner       = errors.New("not the post owner")
	ErrCommentRequired    = errors.New("comment is required")
	ErrCommentIDRequired  = errors.New("comment id is required")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrInvalidImage       = errors.New("invalid image")
	ErrUnsupportedType    = errors.New("unsupported image content type")
	ErrPresignUnsupported = errors.New("presigned upload not supported")
)

// TokenIssuer issues and revokes session tokens.
type TokenIssuer interface {
	Generate(userID string) (string, time.Time, error)
	Revoke(ctx context.Context, claims *jwt.Claims) error
}

// ImageStore stores and removes user pictures.
type ImageStore interface {
	StorePostImage(ctx context.Context, ownerID string, r io.Reader) (domain.Image, error)
	StoreAvatar(ctx context.Context, userID string, r io.Reader) (domain.Image, error)
	PresignPostUpload(ctx context.Context, ownerID, contentType string, expires time.Duration) (*domain.PresignResponse, error)
	Delete(ctx context.Context, img domain.Image) error
	DeleteUserObjects(ctx context.Context, userID string) error
}

// UserService defines the interface for user business logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	// Logout revokes claims when present.
	Logout(ctx context.Context, userID string, claims *jwt.Claims) error
	// ToggleFollow reports whether userID follows targetID afterwards.
	ToggleFollow(ctx context.Context, userID, targetID string) (bool, error)
	UpdatePassword(ctx context.Context, userID string, req *domain.UpdatePasswordRequest) error
	UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) error
	UpdateAvatar(ctx context.Context, userID string, r io.Reader) (*domain.Image, error)
	DeleteProfile(ctx context.Context, userID string, claims *jwt.Claims) error
	GetProfile(ctx context.Context, userID string) (*domain.ProfileResponse, error)
	ListUsers(ctx context.Context) ([]domain.UserResponse, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]domain.UserResponse, error)
	// ForgotPassword mails a reset link built by resetURL from the plain token.
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) error
}

// PostService defines the interface for post business logic.
type PostService interface {
	CreatePost(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error)
	CreatePostWithImage(ctx context.Context, userID, caption string, r io.Reader) (*domain.Post, error)
	UploadImage(ctx context.Context, userID string, r io.Reader) (*domain.Image, error)
	PresignImageUpload(ctx context.Context, userID, contentType string) (*domain.PresignResponse, error)
	DeletePost(ctx context.Context, userID, postID string) error
	// ToggleLike reports whether userID likes the post afterwards.
	ToggleLike(ctx context.Context, userID, postID string) (bool, error)
	GetFeed(ctx context.Context, userID string) ([]*domain.Post, error)
	UpdateCaption(ctx context.Context, userID, postID string, req *domain.UpdateCaptionRequest) error
	// Comment reports whether a new comment was created.
	Comment(ctx context.Context, userID, postID string, req *domain.CommentRequest) (bool, error)
	// DeleteComment reports whether the caller deleted as the post owner.
	DeleteComment(ctx context.Context, userID, postID string, req *domain.DeleteCommentRequest) (bool, error)
}
