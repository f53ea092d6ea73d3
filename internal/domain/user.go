package domain

import (
	"time"
)

// Placeholder avatar assigned at registration.
const (
	PlaceholderAvatarID  = "sample_id"
	PlaceholderAvatarURL = "sample_url"
)

// Image references a stored picture by its storage key and public URL.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// IsPlaceholder reports whether the image is the registration placeholder
// or empty, i.e. owns no stored object.
func (i Image) IsPlaceholder() bool {
	return i.PublicID == "" || i.PublicID == PlaceholderAvatarID
}

// User represents a user entity.
type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Avatar              Image      `json:"avatar"`
	ResetPasswordToken  string     `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Relations holds the reference lists attached to a user.
type Relations struct {
	Posts     []string
	Followers []string
	Following []string
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdatePasswordRequest carries the current and the replacement password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest applies only the fields that are present.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"-"`
}

// UserResponse represents a user in API responses with reference lists
// as ids.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    Image     `json:"avatar"`
	Posts     []string  `json:"posts"`
	Followers []string  `json:"followers"`
	Following []string  `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse is a user with its posts resolved.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    Image     `json:"avatar"`
	Posts     []*Post   `json:"posts"`
	Followers []string  `json:"followers"`
	Following []string  `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse using the given relations.
func (u *User) ToResponse(rel Relations) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Posts:     nonNil(rel.Posts),
		Followers: nonNil(rel.Followers),
		Following: nonNil(rel.Following),
		CreatedAt: u.CreatedAt,
	}
}

// ToProfile converts User to ProfileResponse with resolved posts.
func (u *User) ToProfile(posts []*Post, rel Relations) *ProfileResponse {
	if posts == nil {
		posts = []*Post{}
	}
	return &ProfileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Posts:     posts,
		Followers: nonNil(rel.Followers),
		Following: nonNil(rel.Following),
		CreatedAt: u.CreatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
