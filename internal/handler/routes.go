package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-social/pkg/middleware"
)

// StreamHandler serves the notification websocket.
type StreamHandler interface {
	Stream(c *gin.Context)
}

// RegisterRoutes registers all routes under /api/v1. stream may be nil
// when notifications are disabled.
func RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware, users *UserHandler, posts *PostHandler, stream StreamHandler) {
	api := r.Group("/api/v1")
	{
		// Public routes
		api.POST("/register", users.Register)
		api.POST("/login", users.Login)
		api.GET("/logout", auth.OptionalAuth(), users.Logout)
		api.POST("/forgot/password", users.ForgotPassword)
		api.PUT("/password/reset/:token", users.ResetPassword)

		// Protected routes
		authed := api.Group("")
		authed.Use(auth.RequireAuth())
		{
			authed.GET("/follow/:id", users.Follow)
			authed.PUT("/update/password", users.UpdatePassword)
			authed.PUT("/update/profile", users.UpdateProfile)
			authed.PUT("/update/avatar", users.UpdateAvatar)
			authed.DELETE("/delete/me", users.DeleteMyProfile)
			authed.GET("/me", users.MyProfile)
			authed.GET("/user/:id", users.GetUserProfile)
			authed.GET("/users", users.GetAllUsers)
			authed.GET("/users/search", users.SearchUsers)

			authed.POST("/post/upload", posts.CreatePost)
			authed.POST("/post/image", posts.UploadImage)
			authed.POST("/post/image/presign", posts.PresignImage)
			authed.GET("/post/:id", posts.LikeAndUnlikePost)
			authed.PUT("/post/:id", posts.UpdateCaption)
			authed.DELETE("/post/:id", posts.DeletePost)
			authed.PUT("/post/comment/:id", posts.CommentOnPost)
			authed.DELETE("/post/comment/:id", posts.DeleteComment)
			authed.GET("/posts", posts.GetPostsOfFollowing)

			if stream != nil {
				authed.GET("/notifications/ws", stream.Stream)
			}
		}
	}
}
