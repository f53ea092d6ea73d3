package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-social/internal/service"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/response"
)

// errorReply is the client-facing status and message for a service error.
type errorReply struct {
	err     error
	status  int
	message string
}

var errorReplies = []errorReply{
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrUserExists, http.StatusConflict, "User already exists"},
	{service.ErrWrongPassword, http.StatusBadRequest, "Incorrect password"},
	{service.ErrSelfFollow, http.StatusBadRequest, "You cannot follow yourself"},
	{service.ErrMissingFields, http.StatusBadRequest, "Please fill in all required fields"},
	{service.ErrPasswordTooLong, http.StatusBadRequest, "Password must be at most 72 bytes"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "Token is invalid or has expired"},
	{service.ErrPostNotFound, http.StatusNotFound, "Post not found"},
	{service.ErrNotPostOwner, http.StatusUnauthorized, "Unauthorized"},
	{service.ErrCommentRequired, http.StatusBadRequest, "Comment is required"},
	{service.ErrCommentIDRequired, http.StatusBadRequest, "Comment Id is required"},
	{service.ErrCommentNotFound, http.StatusNotFound, "Comment not found"},
	{service.ErrInvalidImage, http.StatusBadRequest, "Invalid image"},
	{service.ErrUnsupportedType, http.StatusBadRequest, "Unsupported image type"},
	{service.ErrPresignUnsupported, http.StatusBadRequest, "Direct upload is not supported by this server"},
}

// fail answers err with its mapped status. overrides replace the default
// message for specific errors. Unknown errors are logged and answered 500
// with fallback.
func fail(c *gin.Context, err error, fallback string, overrides map[error]string) {
	for _, r := range errorReplies {
		if errors.Is(err, r.err) {
			msg := r.message
			if m, ok := overrides[r.err]; ok {
				msg = m
			}
			response.Error(c, r.status, msg)
			return
		}
	}

	if errors.Is(err, service.ErrMailDelivery) {
		response.InternalError(c, err.Error())
		return
	}

	if isTooLarge(err) {
		response.TooLarge(c, "Upload is too large")
		return
	}

	l := log.Ctx(c.Request.Context())
	l.Error().Err(err).Msg(fallback)
	response.InternalError(c, fallback)
}
