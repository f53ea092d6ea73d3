package pubsub

import "fmt"

// ChannelUserNotifications carries events addressed to a single user.
const ChannelUserNotifications = "notify:user:%s"

// Event types delivered on user notification channels.
const (
	EventFollowed  = "followed"
	EventPostLiked = "post_liked"
	EventCommented = "post_commented"
)

// UserChannel returns the notification channel for userID.
func UserChannel(userID string) string {
	return fmt.Sprintf(ChannelUserNotifications, userID)
}

// FollowedPayload is sent to a user who gained a follower.
type FollowedPayload struct {
	FollowerID   string `json:"follower_id"`
	FollowerName string `json:"follower_name"`
}

// PostLikedPayload is sent to a post owner when someone likes the post.
type PostLikedPayload struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

// CommentedPayload is sent to a post owner when a comment is added or edited.
type CommentedPayload struct {
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Comment string `json:"comment"`
	Created bool   `json:"created"`
}
