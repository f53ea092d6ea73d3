package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/service"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/middleware"
	"github.com/weiawesome/wes-io-social/pkg/response"
)

// PostHandler handles HTTP requests for posts, likes and comments.
type PostHandler struct {
	postService    service.PostService
	maxUploadBytes int64
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService, maxUploadBytes int64) *PostHandler {
	return &PostHandler{
		postService:    postService,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreatePost handles POST /post/upload. A JSON body references an image
// stored earlier; a multipart body carries the "image" file itself.
func (h *PostHandler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limitBody(c, h.maxUploadBytes)
		fh, err := c.FormFile("image")
		if err != nil {
			if isTooLarge(err) {
				response.TooLarge(c, "Upload is too large")
				return
			}
			l.Warn().Err(err).Msg("missing post image")
			response.BadRequest(c, "Please choose an image")
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, err, "failed to read image", nil)
			return
		}
		defer f.Close()

		post, err := h.postService.CreatePostWithImage(ctx, userID, c.PostForm("caption"), f)
		if err != nil {
			fail(c, err, "failed to create post", nil)
			return
		}
		response.Created(c, gin.H{"post": post})
		return
	}

	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create post request")
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.CreatePost(ctx, userID, &req)
	if err != nil {
		fail(c, err, "failed to create post", nil)
		return
	}

	response.Created(c, gin.H{"post": post})
}

// UploadImage handles POST /post/image and returns the stored reference.
func (h *PostHandler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	limitBody(c, h.maxUploadBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		if isTooLarge(err) {
			response.TooLarge(c, "Upload is too large")
			return
		}
		l.Warn().Err(err).Msg("missing post image")
		response.BadRequest(c, "Please choose an image")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err, "failed to read image", nil)
		return
	}
	defer f.Close()

	img, err := h.postService.UploadImage(ctx, middleware.GetUserID(c), f)
	if err != nil {
		fail(c, err, "failed to upload image", nil)
		return
	}

	response.Created(c, gin.H{"image": img})
}

// PresignImage handles POST /post/image/presign.
func (h *PostHandler) PresignImage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid presign request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.postService.PresignImageUpload(ctx, middleware.GetUserID(c), req.ContentType)
	if err != nil {
		fail(c, err, "failed to presign upload", nil)
		return
	}

	response.Success(c, result)
}

// DeletePost handles DELETE /post/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.postService.DeletePost(ctx, middleware.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err, "failed to delete post", nil)
		return
	}

	response.Message(c, http.StatusOK, "Post deleted")
}

// LikeAndUnlikePost handles GET /post/:id and toggles the caller's like.
func (h *PostHandler) LikeAndUnlikePost(c *gin.Context) {
	ctx := c.Request.Context()

	liked, err := h.postService.ToggleLike(ctx, middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to like post", nil)
		return
	}

	if liked {
		response.Message(c, http.StatusOK, "Post Liked")
		return
	}
	response.Message(c, http.StatusOK, "Post Unliked")
}

// GetPostsOfFollowing handles GET /posts.
func (h *PostHandler) GetPostsOfFollowing(c *gin.Context) {
	ctx := c.Request.Context()

	posts, err := h.postService.GetFeed(ctx, middleware.GetUserID(c))
	if err != nil {
		fail(c, err, "failed to load posts", nil)
		return
	}

	response.Success(c, gin.H{"posts": posts})
}

// UpdateCaption handles PUT /post/:id.
func (h *PostHandler) UpdateCaption(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpdateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update caption request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.postService.UpdateCaption(ctx, middleware.GetUserID(c), c.Param("id"), &req); err != nil {
		fail(c, err, "failed to update caption", nil)
		return
	}

	response.Message(c, http.StatusOK, "Post updated")
}

// CommentOnPost handles PUT /post/comment/:id.
func (h *PostHandler) CommentOnPost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn().Err(err).Msg("invalid comment request")
		response.BadRequest(c, err.Error())
		return
	}

	created, err := h.postService.Comment(ctx, middleware.GetUserID(c), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "failed to comment on post", nil)
		return
	}

	if created {
		response.Message(c, http.StatusCreated, "Comment added")
		return
	}
	response.Message(c, http.StatusOK, "Comment Updated")
}

// DeleteComment handles DELETE /post/comment/:id. The comment id is read
// from the JSON body or the commentId query parameter.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn().Err(err).Msg("invalid delete comment request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.CommentID == "" {
		req.CommentID = c.Query("commentId")
	}

	asOwner, err := h.postService.DeleteComment(ctx, middleware.GetUserID(c), c.Param("id"), &req)
	if err != nil {
		fail(c, err, "failed to delete comment", nil)
		return
	}

	if asOwner {
		response.Message(c, http.StatusOK, "Selected Comment has deleted")
		return
	}
	response.Message(c, http.StatusOK, "Your Comment has deleted")
}

// limitBody caps the request body at n bytes when n is positive.
func limitBody(c *gin.Context, n int64) {
	if n > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
	}
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
