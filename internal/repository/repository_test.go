package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/internal/testutil"
)

type repos struct {
	db      *gorm.DB
	users   *GormUserRepository
	follows *GormFollowRepository
	posts   *GormPostRepository
}

func newRepos(t *testing.T) *repos {
	db := testutil.NewDB(t)
	return &repos{
		db:      db,
		users:   NewGormUserRepository(db, idgen.MustNew(idgen.UUID)),
		follows: NewGormFollowRepository(db),
		posts:   NewGormPostRepository(db, idgen.MustNew(idgen.ULID), idgen.MustNew(idgen.KSUID)),
	}
}

func (r *repos) user(t *testing.T, email string) *domain.User {
	u := &domain.User{Name: email, Email: email, PasswordHash: "hash",
		Avatar: domain.Image{PublicID: domain.PlaceholderAvatarID, URL: domain.PlaceholderAvatarURL}}
	require.NoError(t, r.users.Create(context.Background(), u))
	return u
}

func (r *repos) post(t *testing.T, owner string) *domain.Post {
	p := &domain.Post{Caption: "hello", OwnerID: owner, Image: domain.Image{PublicID: "posts/" + owner, URL: "u"}}
	require.NoError(t, r.posts.Create(context.Background(), p))
	return p
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestUserCreateAndLookup(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	u := r.user(t, "a@x.io")
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := r.users.GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.PlaceholderAvatarID, got.Avatar.PublicID)

	_, err = r.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	dup := &domain.User{Name: "b", Email: "a@x.io", PasswordHash: "h"}
	assert.ErrorIs(t, r.users.Create(ctx, dup), ErrEmailExists)
}

func TestUserUpdateEmailCollision(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	r.user(t, "a@x.io")
	b := r.user(t, "b@x.io")

	b.Email = "a@x.io"
	assert.ErrorIs(t, r.users.Update(ctx, b), ErrEmailExists)

	b.Email = "c@x.io"
	b.Name = "Bee"
	require.NoError(t, r.users.Update(ctx, b))
	got, err := r.users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bee", got.Name)
	assert.Equal(t, "c@x.io", got.Email)
}

func TestResetTokenLookupAndSweep(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := r.user(t, "live@x.io")
	exp := now.Add(10 * time.Minute)
	live.ResetPasswordToken, live.ResetPasswordExpire = "livehash", &exp
	require.NoError(t, r.users.Update(ctx, live))

	stale := r.user(t, "stale@x.io")
	past := now.Add(-time.Minute)
	stale.ResetPasswordToken, stale.ResetPasswordExpire = "stalehash", &past
	require.NoError(t, r.users.Update(ctx, stale))

	got, err := r.users.GetByResetToken(ctx, "livehash", now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = r.users.GetByResetToken(ctx, "stalehash", now)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = r.users.GetByResetToken(ctx, "", now)
	assert.ErrorIs(t, err, ErrUserNotFound)

	n, err := r.users.ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = r.users.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetPasswordToken)
	assert.Nil(t, got.ResetPasswordExpire)
}

func TestUserSearch(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	r.user(t, "alice@x.io")
	r.user(t, "bob@x.io")

	users, err := r.users.Search(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@x.io", users[0].Email)

	users, err = r.users.Search(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFollowToggle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a, b := r.user(t, "a@x.io"), r.user(t, "b@x.io")

	followed, err := r.follows.Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, followed)

	followers, err := r.follows.Followers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, followers)
	following, err := r.follows.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, following)

	fs, fg, err := r.follows.Relations(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, fs[b.ID])
	assert.Equal(t, []string{b.ID}, fg[a.ID])
	assert.Empty(t, fs[a.ID])

	followed, err = r.follows.Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, followed)
	assert.Zero(t, count(t, r.db, &domain.FollowModel{}, "1 = 1"))
}

func TestPostLikeToggle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.user(t, "a@x.io")
	p := r.post(t, a.ID)

	liked, err := r.posts.ToggleLike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := r.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, got.Likes)

	liked, err = r.posts.ToggleLike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = r.posts.ToggleLike(ctx, "missing", a.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCommentUpsertAndDelete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a, b := r.user(t, "a@x.io"), r.user(t, "b@x.io")
	p := r.post(t, a.ID)

	created, err := r.posts.UpsertComment(ctx, p.ID, b.ID, "first")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.posts.UpsertComment(ctx, p.ID, b.ID, "second")
	require.NoError(t, err)
	assert.False(t, created)

	got, err := r.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "second", got.Comments[0].Comment)
	assert.Equal(t, b.ID, got.Comments[0].UserID)

	assert.ErrorIs(t, r.posts.DeleteComment(ctx, p.ID, "nope"), ErrCommentNotFound)
	assert.ErrorIs(t, r.posts.DeleteCommentByUser(ctx, p.ID, a.ID), ErrCommentNotFound)
	require.NoError(t, r.posts.DeleteComment(ctx, p.ID, got.Comments[0].ID))

	_, err = r.posts.UpsertComment(ctx, "missing", b.ID, "x")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostListingOrder(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a, b := r.user(t, "a@x.io"), r.user(t, "b@x.io")

	first := r.post(t, a.ID)
	second := r.post(t, b.ID)
	third := r.post(t, a.ID)

	feed, err := r.posts.ListByOwners(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, third.ID, feed[0].ID)
	assert.Equal(t, first.ID, feed[2].ID)

	own, err := r.posts.ListByOwner(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, first.ID, own[0].ID)

	ids, err := r.posts.IDsByOwners(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, third.ID}, ids[a.ID])
	assert.Equal(t, []string{second.ID}, ids[b.ID])

	empty, err := r.posts.ListByOwners(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostDeleteAndCaption(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a := r.user(t, "a@x.io")
	p := r.post(t, a.ID)

	require.NoError(t, r.posts.UpdateCaption(ctx, p.ID, "new"))
	got, err := r.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Caption)

	_, err = r.posts.ToggleLike(ctx, p.ID, a.ID)
	require.NoError(t, err)
	_, err = r.posts.UpsertComment(ctx, p.ID, a.ID, "c")
	require.NoError(t, err)

	require.NoError(t, r.posts.Delete(ctx, p.ID))
	assert.Zero(t, count(t, r.db, &domain.LikeModel{}, "post_id = ?", p.ID))
	assert.Zero(t, count(t, r.db, &domain.CommentModel{}, "post_id = ?", p.ID))
	assert.ErrorIs(t, r.posts.Delete(ctx, p.ID), ErrPostNotFound)
	assert.ErrorIs(t, r.posts.UpdateCaption(ctx, p.ID, "x"), ErrPostNotFound)
}

func TestUserDeleteCascade(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	a, b, c := r.user(t, "a@x.io"), r.user(t, "b@x.io"), r.user(t, "c@x.io")

	own := r.post(t, a.ID)
	other := r.post(t, b.ID)

	_, err := r.follows.Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = r.follows.Toggle(ctx, c.ID, a.ID)
	require.NoError(t, err)
	_, err = r.posts.ToggleLike(ctx, other.ID, a.ID)
	require.NoError(t, err)
	_, err = r.posts.UpsertComment(ctx, other.ID, a.ID, "hi")
	require.NoError(t, err)
	_, err = r.posts.ToggleLike(ctx, own.ID, b.ID)
	require.NoError(t, err)
	_, err = r.posts.UpsertComment(ctx, own.ID, c.ID, "yo")
	require.NoError(t, err)

	deleted, err := r.users.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID}, deleted.PostIDs)
	assert.Equal(t, []string{c.ID}, deleted.FollowerIDs)
	assert.Equal(t, []string{b.ID}, deleted.FollowingIDs)
	assert.Equal(t, []string{b.ID}, deleted.EngagedOwnerIDs)
	require.Len(t, deleted.PostImages, 1)

	assert.Zero(t, count(t, r.db, &domain.UserModel{}, "id = ?", a.ID))
	assert.Zero(t, count(t, r.db, &domain.PostModel{}, "owner_id = ?", a.ID))
	assert.Zero(t, count(t, r.db, &domain.FollowModel{}, "follower_id = ? OR following_id = ?", a.ID, a.ID))
	assert.Zero(t, count(t, r.db, &domain.LikeModel{}, "user_id = ? OR post_id = ?", a.ID, own.ID))
	assert.Zero(t, count(t, r.db, &domain.CommentModel{}, "user_id = ? OR post_id = ?", a.ID, own.ID))
	assert.Equal(t, int64(1), count(t, r.db, &domain.PostModel{}, "id = ?", other.ID))

	_, err = r.users.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
