package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-social/internal/cache"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/pkg/log"
)

// Profiles assembles user profiles (user, posts, followers, following)
// behind a read-through cache. Both services invalidate it on writes.
type Profiles struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	posts   repository.PostRepository
	cache   cache.ProfileCache
	ttl     time.Duration
	group   singleflight.Group
}

// NewProfiles creates the profile reader. A nil cache reads through to
// the database every time.
func NewProfiles(users repository.UserRepository, follows repository.FollowRepository, posts repository.PostRepository, c cache.ProfileCache, ttl time.Duration) *Profiles {
	return &Profiles{
		users:   users,
		follows: follows,
		posts:   posts,
		cache:   c,
		ttl:     ttl,
	}
}

// Get returns the profile of userID or repository.ErrUserNotFound.
func (p *Profiles) Get(ctx context.Context, userID string) (*domain.ProfileResponse, error) {
	l := log.Ctx(ctx)

	if p.cache == nil {
		return p.load(ctx, userID)
	}

	key := p.cache.BuildKeyByID(userID)
	profile, err := p.cache.Get(ctx, key)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Str(log.FieldTargetID, userID).Msg("profile cache read failed")
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		profile, err := p.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, profile, p.ttl); err != nil {
			l.Warn().Err(err).Str(log.FieldTargetID, userID).Msg("profile cache write failed")
		}
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProfileResponse), nil
}

func (p *Profiles) load(ctx context.Context, userID string) (*domain.ProfileResponse, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		posts []*domain.Post
		rel   domain.Relations
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = p.posts.ListByOwner(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		rel.Followers, err = p.follows.Followers(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		rel.Following, err = p.follows.Following(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return user.ToProfile(posts, rel), nil
}

// Invalidate drops cached profiles. Failures are logged; entries expire
// on their own.
func (p *Profiles) Invalidate(ctx context.Context, userIDs ...string) {
	if p.cache == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, p.cache.BuildKeyByID(id))
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Strs("keys", keys).Msg("profile cache invalidation failed")
	}
}

// Summaries builds list entries for users with their relation ids.
func (p *Profiles) Summaries(ctx context.Context, users []*domain.User) ([]domain.UserResponse, error) {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var (
		postIDs              map[string][]string
		followers, following map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		postIDs, err = p.posts.IDsByOwners(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		followers, following, err = p.follows.Relations(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse(domain.Relations{
			Posts:     postIDs[u.ID],
			Followers: followers[u.ID],
			Following: following[u.ID],
		}))
	}
	return out, nil
}
