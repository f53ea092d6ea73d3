package search

import (
	"context"

	"github.com/weiawesome/wes-io-social/internal/domain"
)

// UserIndex keeps a searchable copy of user names and emails.
type UserIndex interface {
	Index(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, userID string) error
	// Search returns matching user ids, best match first.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// userDocument is the indexed shape of a user. Credentials never leave the
// database.
type userDocument struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Avatar domain.Image `json:"avatar"`
}
