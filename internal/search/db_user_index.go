package search

import (
	"context"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/repository"
)

// DBUserIndex answers searches straight from the users table. Index and
// Delete are no-ops because the table is the source of truth.
type DBUserIndex struct {
	users repository.UserRepository
}

func NewDBUserIndex(users repository.UserRepository) *DBUserIndex {
	return &DBUserIndex{users: users}
}

func (d *DBUserIndex) Index(context.Context, *domain.User) error { return nil }

func (d *DBUserIndex) Delete(context.Context, string) error { return nil }

func (d *DBUserIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	users, err := d.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

var _ UserIndex = (*DBUserIndex)(nil)
