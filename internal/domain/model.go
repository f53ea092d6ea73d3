package domain

import (
	"time"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID                  string     `gorm:"type:varchar(40);primaryKey"`
	Name                string     `gorm:"type:varchar(100);not null"`
	Email               string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash        string     `gorm:"type:varchar(255);not null"`
	AvatarPublicID      string     `gorm:"type:varchar(255)"`
	AvatarURL           string     `gorm:"type:varchar(1024)"`
	ResetPasswordToken  string     `gorm:"type:varchar(64);index"`
	ResetPasswordExpire *time.Time `gorm:"index"`
	CreatedAt           time.Time  `gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:                  m.ID,
		Name:                m.Name,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		Avatar:              Image{PublicID: m.AvatarPublicID, URL: m.AvatarURL},
		ResetPasswordToken:  m.ResetPasswordToken,
		ResetPasswordExpire: m.ResetPasswordExpire,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		AvatarPublicID:      u.Avatar.PublicID,
		AvatarURL:           u.Avatar.URL,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// FollowModel is one directed edge: FollowerID follows FollowingID.
type FollowModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(40);not null;uniqueIndex:uidx_follow_pair,priority:1"`
	FollowingID string    `gorm:"column:following_id;type:varchar(40);not null;uniqueIndex:uidx_follow_pair,priority:2;index:idx_follows_following"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "follows" }

// PostModel is the GORM model for posts table.
type PostModel struct {
	ID            string    `gorm:"type:varchar(40);primaryKey"`
	Caption       string    `gorm:"type:text"`
	ImagePublicID string    `gorm:"type:varchar(255)"`
	ImageURL      string    `gorm:"type:varchar(1024)"`
	OwnerID       string    `gorm:"type:varchar(40);not null;index:idx_posts_owner_created,priority:1"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_posts_owner_created,priority:2"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (PostModel) TableName() string { return "posts" }

// ToDomain converts PostModel to a Post without likes or comments.
func (m *PostModel) ToDomain() *Post {
	return &Post{
		ID:        m.ID,
		Caption:   m.Caption,
		Image:     Image{PublicID: m.ImagePublicID, URL: m.ImageURL},
		OwnerID:   m.OwnerID,
		Likes:     []string{},
		Comments:  []Comment{},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// PostToModel converts domain Post to PostModel.
func PostToModel(p *Post) *PostModel {
	return &PostModel{
		ID:            p.ID,
		Caption:       p.Caption,
		ImagePublicID: p.Image.PublicID,
		ImageURL:      p.Image.URL,
		OwnerID:       p.OwnerID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// LikeModel records that UserID likes PostID.
type LikeModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	PostID    string    `gorm:"type:varchar(40);not null;uniqueIndex:uidx_like_pair,priority:1"`
	UserID    string    `gorm:"type:varchar(40);not null;uniqueIndex:uidx_like_pair,priority:2;index:idx_likes_user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (LikeModel) TableName() string { return "post_likes" }

// CommentModel is the single comment a user holds on a post.
type CommentModel struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	PostID    string    `gorm:"type:varchar(40);not null;uniqueIndex:uidx_comment_pair,priority:1"`
	UserID    string    `gorm:"type:varchar(40);not null;uniqueIndex:uidx_comment_pair,priority:2;index:idx_comments_user"`
	Comment   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CommentModel) TableName() string { return "comments" }

// ToDomain converts CommentModel to domain Comment.
func (m *CommentModel) ToDomain() Comment {
	return Comment{
		ID:        m.ID,
		UserID:    m.UserID,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Models lists every table for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&FollowModel{},
		&PostModel{},
		&LikeModel{},
		&CommentModel{},
	}
}
