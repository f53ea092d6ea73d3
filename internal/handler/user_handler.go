package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/service"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/middleware"
	"github.com/weiawesome/wes-io-social/pkg/response"
)

const defaultSearchLimit = 20

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// UserHandler handles HTTP requests for accounts, profiles and follows.
type UserHandler struct {
	userService    service.UserService
	authMiddleware *middleware.AuthMiddleware
	cookie         CookieConfig
	publicURL      string
	maxUploadBytes int64
}

// NewUserHandler creates a new user handler. publicURL, when set, is the
// origin of emailed links instead of the request's Host header.
func NewUserHandler(userService service.UserService, authMiddleware *middleware.AuthMiddleware, cookie CookieConfig, publicURL string, maxUploadBytes int64) *UserHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &UserHandler{
		userService:    userService,
		authMiddleware: authMiddleware,
		cookie:         cookie,
		publicURL:      strings.TrimSuffix(publicURL, "/"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register handles POST /register.
func (h *UserHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, "Please enter name, email and password")
		return
	}

	result, err := h.userService.Register(ctx, &req)
	if err != nil {
		fail(c, err, "failed to register user", map[error]string{
			service.ErrMissingFields: "Please enter name, email and password",
		})
		return
	}

	h.setSession(c, result.Token, result.ExpiresAt)
	response.Created(c, result)
}

// Login handles POST /login.
func (h *UserHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, "Please enter email and password")
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		fail(c, err, "failed to login", nil)
		return
	}

	h.setSession(c, result.Token, result.ExpiresAt)
	response.Success(c, result)
}

// Logout handles GET /logout. It succeeds with or without a session.
func (h *UserHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.userService.Logout(ctx, middleware.GetUserID(c), middleware.GetClaims(c)); err != nil {
		fail(c, err, "failed to logout", nil)
		return
	}

	h.clearSession(c)
	response.Message(c, http.StatusOK, "Logged out")
}

// Follow handles GET /follow/:id and toggles the relationship.
func (h *UserHandler) Follow(c *gin.Context) {
	ctx := c.Request.Context()

	followed, err := h.userService.ToggleFollow(ctx, middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to follow user", nil)
		return
	}

	if followed {
		response.Message(c, http.StatusOK, "User followed successfully")
		return
	}
	response.Message(c, http.StatusOK, "User unfollowed successfully")
}

// UpdatePassword handles PUT /update/password.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update password request")
		response.BadRequest(c, "Please enter old and new password")
		return
	}

	if err := h.userService.UpdatePassword(ctx, middleware.GetUserID(c), &req); err != nil {
		fail(c, err, "failed to update password", map[error]string{
			service.ErrMissingFields: "Please enter old and new password",
			service.ErrWrongPassword: "Incorrect old password",
		})
		return
	}

	response.Message(c, http.StatusOK, "Password updated")
}

// UpdateProfile handles PUT /update/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update profile request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.UpdateProfile(ctx, middleware.GetUserID(c), &req); err != nil {
		fail(c, err, "failed to update profile", nil)
		return
	}

	response.Message(c, http.StatusOK, "Profile updated")
}

// UpdateAvatar handles PUT /update/avatar with a multipart "avatar" file.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	limitBody(c, h.maxUploadBytes)
	fh, err := c.FormFile("avatar")
	if err != nil {
		if isTooLarge(err) {
			response.TooLarge(c, "Upload is too large")
			return
		}
		l.Warn().Err(err).Msg("missing avatar file")
		response.BadRequest(c, "Please choose an avatar image")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err, "failed to read avatar", nil)
		return
	}
	defer f.Close()

	img, err := h.userService.UpdateAvatar(ctx, middleware.GetUserID(c), f)
	if err != nil {
		fail(c, err, "failed to update avatar", nil)
		return
	}

	response.Success(c, gin.H{"avatar": img})
}

// DeleteMyProfile handles DELETE /delete/me.
func (h *UserHandler) DeleteMyProfile(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.userService.DeleteProfile(ctx, middleware.GetUserID(c), middleware.GetClaims(c)); err != nil {
		fail(c, err, "failed to delete profile", nil)
		return
	}

	h.clearSession(c)
	response.Message(c, http.StatusOK, "Profile deleted")
}

// MyProfile handles GET /me.
func (h *UserHandler) MyProfile(c *gin.Context) {
	h.profile(c, middleware.GetUserID(c))
}

// GetUserProfile handles GET /user/:id.
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	h.profile(c, c.Param("id"))
}

func (h *UserHandler) profile(c *gin.Context, userID string) {
	ctx := c.Request.Context()

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		fail(c, err, "failed to get profile", nil)
		return
	}

	response.Success(c, gin.H{"user": profile})
}

// GetAllUsers handles GET /users.
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		fail(c, err, "failed to list users", nil)
		return
	}

	response.Success(c, gin.H{"users": users})
}

// SearchUsers handles GET /users/search?q=&limit=.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	users, err := h.userService.SearchUsers(ctx, c.Query("q"), limit)
	if err != nil {
		fail(c, err, "failed to search users", nil)
		return
	}

	response.Success(c, gin.H{"users": users})
}

// ForgotPassword handles POST /forgot/password.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid forgot password request")
		response.BadRequest(c, "Please enter your email")
		return
	}

	base := h.origin(c) + "/api/v1/password/reset/"
	err := h.userService.ForgotPassword(ctx, req.Email, func(token string) string {
		return base + token
	})
	if err != nil {
		fail(c, err, "failed to send reset email", nil)
		return
	}

	response.Message(c, http.StatusOK, "Email sent to "+req.Email)
}

// ResetPassword handles PUT /password/reset/:token.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid reset password request")
		response.BadRequest(c, "Please enter a new password")
		return
	}

	if err := h.userService.ResetPassword(ctx, c.Param("token"), &req); err != nil {
		fail(c, err, "failed to reset password", map[error]string{
			service.ErrMissingFields: "Please enter a new password",
		})
		return
	}

	response.Message(c, http.StatusOK, "Password updated successfully")
}

func (h *UserHandler) setSession(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

// clearSession overwrites the session cookie with an expired one.
func (h *UserHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func (h *UserHandler) origin(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	return fmt.Sprintf("%s://%s", scheme(c), c.Request.Host)
}

func scheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
