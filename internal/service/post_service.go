package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-social/internal/audit"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/media"
	"github.com/weiawesome/wes-io-social/internal/notify"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/storage"
)

// PostDeps collects the collaborators of the post service.
type PostDeps struct {
	Posts      repository.PostRepository
	Users      repository.UserRepository
	Follows    repository.FollowRepository
	Profiles   *Profiles
	Images     ImageStore
	Notifier   *notify.Notifier
	PresignTTL time.Duration
}

// postServiceImpl implements PostService interface.
type postServiceImpl struct {
	PostDeps
}

// NewPostService creates a new post service.
func NewPostService(deps PostDeps) PostService {
	if deps.PresignTTL <= 0 {
		deps.PresignTTL = 15 * time.Minute
	}
	return &postServiceImpl{PostDeps: deps}
}

// CreatePost creates a post owned by userID from an image reference.
// Stored post images of other users cannot be referenced.
func (s *postServiceImpl) CreatePost(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	l := log.Ctx(ctx)

	if req.PublicID != "" && media.IsPostKey(req.PublicID) && !media.Owns(req.PublicID, userID) {
		return nil, ErrInvalidImage
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, s.mapUserErr(ctx, err)
	}

	post := &domain.Post{
		Caption: req.Caption,
		Image:   domain.Image{PublicID: req.PublicID, URL: req.URL},
		OwnerID: userID,
	}
	if err := s.Posts.Create(ctx, post); err != nil {
		l.Error().Err(err).Msg("failed to create post")
		return nil, err
	}

	s.Profiles.Invalidate(ctx, userID)
	audit.LogTarget(ctx, audit.ActionCreatePost, userID, post.ID, "post created")
	return post, nil
}

// CreatePostWithImage stores the uploaded picture and creates the post
// referencing it. The picture is removed again if the post cannot be saved.
func (s *postServiceImpl) CreatePostWithImage(ctx context.Context, userID, caption string, r io.Reader) (*domain.Post, error) {
	l := log.Ctx(ctx)

	img, err := s.UploadImage(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	post, err := s.CreatePost(ctx, userID, &domain.CreatePostRequest{
		Caption:  caption,
		PublicID: img.PublicID,
		URL:      img.URL,
	})
	if err != nil {
		if derr := s.Images.Delete(context.WithoutCancel(ctx), *img); derr != nil {
			l.Warn().Err(derr).Str("key", img.PublicID).Msg("failed to remove orphaned post image")
		}
		return nil, err
	}
	return post, nil
}

func (s *postServiceImpl) UploadImage(ctx context.Context, userID string, r io.Reader) (*domain.Image, error) {
	l := log.Ctx(ctx)

	img, err := s.Images.StorePostImage(ctx, userID, r)
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return nil, ErrInvalidImage
		}
		l.Error().Err(err).Msg("failed to store post image")
		return nil, err
	}
	return &img, nil
}

func (s *postServiceImpl) PresignImageUpload(ctx context.Context, userID, contentType string) (*domain.PresignResponse, error) {
	l := log.Ctx(ctx)

	resp, err := s.Images.PresignPostUpload(ctx, userID, strings.ToLower(contentType), s.PresignTTL)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			return nil, ErrUnsupportedType
		case errors.Is(err, storage.ErrPresignUnsupported):
			return nil, ErrPresignUnsupported
		}
		l.Error().Err(err).Msg("failed to presign post upload")
		return nil, err
	}
	return resp, nil
}

// DeletePost removes the caller's post with its likes and comments.
func (s *postServiceImpl) DeletePost(ctx context.Context, userID, postID string) error {
	l := log.Ctx(ctx).With().Str(log.FieldPostID, postID).Logger()

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}

	if err := s.Posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		l.Error().Err(err).Msg("failed to delete post")
		return err
	}

	if media.Owns(post.Image.PublicID, post.OwnerID) {
		if err := s.Images.Delete(context.WithoutCancel(ctx), post.Image); err != nil {
			l.Warn().Err(err).Str("key", post.Image.PublicID).Msg("failed to remove post image")
		}
	}

	s.Profiles.Invalidate(ctx, userID)
	audit.LogTarget(ctx, audit.ActionDeletePost, userID, postID, "post deleted")
	return nil
}

func (s *postServiceImpl) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	l := log.Ctx(ctx).With().Str(log.FieldPostID, postID).Logger()

	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return false, s.mapUserErr(ctx, err)
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	liked, err := s.Posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return false, ErrPostNotFound
		}
		l.Error().Err(err).Msg("failed to toggle like")
		return false, err
	}

	s.Profiles.Invalidate(ctx, post.OwnerID)
	if liked {
		s.Notifier.PostLiked(ctx, post.OwnerID, postID, userID)
	}
	return liked, nil
}

// GetFeed returns the posts of every user the caller follows, newest first.
func (s *postServiceImpl) GetFeed(ctx context.Context, userID string) ([]*domain.Post, error) {
	l := log.Ctx(ctx)

	following, err := s.Follows.Following(ctx, userID)
	if err != nil {
		l.Error().Err(err).Msg("failed to load following")
		return nil, err
	}

	posts, err := s.Posts.ListByOwners(ctx, following)
	if err != nil {
		l.Error().Err(err).Msg("failed to load feed")
		return nil, err
	}
	return posts, nil
}

func (s *postServiceImpl) UpdateCaption(ctx context.Context, userID, postID string, req *domain.UpdateCaptionRequest) error {
	l := log.Ctx(ctx).With().Str(log.FieldPostID, postID).Logger()

	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return err
	}

	if err := s.Posts.UpdateCaption(ctx, postID, req.Caption); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		l.Error().Err(err).Msg("failed to update caption")
		return err
	}

	s.Profiles.Invalidate(ctx, userID)
	audit.LogTarget(ctx, audit.ActionUpdateCaption, userID, postID, "caption updated")
	return nil
}

// Comment replaces the caller's comment on the post or adds one.
func (s *postServiceImpl) Comment(ctx context.Context, userID, postID string, req *domain.CommentRequest) (bool, error) {
	l := log.Ctx(ctx).With().Str(log.FieldPostID, postID).Logger()

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(req.Comment) == "" {
		return false, ErrCommentRequired
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return false, s.mapUserErr(ctx, err)
	}

	created, err := s.Posts.UpsertComment(ctx, postID, userID, req.Comment)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return false, ErrPostNotFound
		}
		l.Error().Err(err).Msg("failed to save comment")
		return false, err
	}

	s.Profiles.Invalidate(ctx, post.OwnerID)
	s.Notifier.Commented(ctx, post.OwnerID, postID, userID, req.Comment, created)
	return created, nil
}

// DeleteComment lets a post owner remove any comment by id. Everybody
// else removes their own comment, which needs no id.
func (s *postServiceImpl) DeleteComment(ctx context.Context, userID, postID string, req *domain.DeleteCommentRequest) (bool, error) {
	l := log.Ctx(ctx).With().Str(log.FieldPostID, postID).Logger()

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	asOwner := post.OwnerID == userID
	if asOwner {
		if req.CommentID == "" {
			return true, ErrCommentIDRequired
		}
		err = s.Posts.DeleteComment(ctx, postID, req.CommentID)
	} else {
		err = s.Posts.DeleteCommentByUser(ctx, postID, userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return asOwner, ErrCommentNotFound
		}
		l.Error().Err(err).Msg("failed to delete comment")
		return asOwner, err
	}

	s.Profiles.Invalidate(ctx, post.OwnerID)
	l.Debug().Str(log.FieldCommentID, req.CommentID).Bool("as_owner", asOwner).Msg("comment deleted")
	audit.LogTarget(ctx, audit.ActionDeleteComment, userID, postID, "comment deleted")
	return asOwner, nil
}

func (s *postServiceImpl) getPost(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldPostID, postID).Msg("post lookup failed")
		return nil, err
	}
	return post, nil
}

// ownedPost returns the post when userID owns it.
func (s *postServiceImpl) ownedPost(ctx context.Context, userID, postID string) (*domain.Post, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != userID {
		return nil, ErrNotPostOwner
	}
	return post, nil
}

func (s *postServiceImpl) mapUserErr(ctx context.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	l := log.Ctx(ctx)
	l.Error().Err(err).Msg("user lookup failed")
	return err
}
