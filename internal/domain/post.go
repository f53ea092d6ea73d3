package domain

import "time"

// Post represents a post with its engagement.
type Post struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	Image     Image     `json:"image"`
	OwnerID   string    `json:"owner"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is one user's comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostRequest creates a post from an already stored image.
type CreatePostRequest struct {
	Caption  string `json:"caption" form:"caption"`
	PublicID string `json:"public_id" form:"public_id"`
	URL      string `json:"url" form:"url"`
}

// UpdateCaptionRequest replaces a post's caption.
type UpdateCaptionRequest struct {
	Caption string `json:"caption"`
}

// CommentRequest adds or replaces the caller's comment.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// DeleteCommentRequest names the comment a post owner removes.
type DeleteCommentRequest struct {
	CommentID string `json:"commentId"`
}

// PresignRequest asks for a direct upload URL.
type PresignRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// PresignResponse is returned when a presigned upload URL is generated.
type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	Image     Image  `json:"image"`
	ExpiresIn int    `json:"expires_in"` // seconds
}
