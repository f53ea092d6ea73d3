package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
)

func TestLikeTwiceUnlikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	p := f.post(t, a, "p")

	liked, err := f.posts.ToggleLike(ctx, b, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, got.Likes)

	liked, err = f.posts.ToggleLike(ctx, b, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err = f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)

	_, err = f.posts.ToggleLike(ctx, b, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCommentTwiceKeepsOneComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	p := f.post(t, a, "p")

	created, err := f.posts.Comment(ctx, b, p.ID, &domain.CommentRequest{Comment: "first"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.posts.Comment(ctx, b, p.ID, &domain.CommentRequest{Comment: "second"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, b, got.Comments[0].UserID)
	assert.Equal(t, "second", got.Comments[0].Comment)

	_, err = f.posts.Comment(ctx, b, p.ID, &domain.CommentRequest{Comment: "  "})
	assert.ErrorIs(t, err, ErrCommentRequired)
	_, err = f.posts.Comment(ctx, b, "missing", &domain.CommentRequest{Comment: "x"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	assert.Equal(t, []string{pubsub.EventCommented, pubsub.EventCommented}, f.pub.types())
}

func TestDeletePostRequiresOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	p := f.post(t, a, "p")

	assert.ErrorIs(t, f.posts.DeletePost(ctx, b, p.ID), ErrNotPostOwner)

	_, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	prof, err := f.users.GetProfile(ctx, a)
	require.NoError(t, err)
	require.Len(t, prof.Posts, 1)
	assert.Equal(t, p.ID, prof.Posts[0].ID)

	require.NoError(t, f.posts.DeletePost(ctx, a, p.ID))
	prof, err = f.users.GetProfile(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, prof.Posts)

	assert.ErrorIs(t, f.posts.DeletePost(ctx, a, p.ID), ErrPostNotFound)
}

func TestUpdateCaption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	p := f.post(t, a, "old")

	err := f.posts.UpdateCaption(ctx, b, p.ID, &domain.UpdateCaptionRequest{Caption: "hijack"})
	assert.ErrorIs(t, err, ErrNotPostOwner)
	err = f.posts.UpdateCaption(ctx, a, "missing", &domain.UpdateCaptionRequest{Caption: "x"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, f.posts.UpdateCaption(ctx, a, p.ID, &domain.UpdateCaptionRequest{Caption: "new"}))
	got, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Caption)
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner").User.ID
	b := f.register(t, "b").User.ID
	c := f.register(t, "c").User.ID
	p := f.post(t, owner, "p")

	_, err := f.posts.Comment(ctx, b, p.ID, &domain.CommentRequest{Comment: "from b"})
	require.NoError(t, err)
	_, err = f.posts.Comment(ctx, c, p.ID, &domain.CommentRequest{Comment: "from c"})
	require.NoError(t, err)

	// Owner must name the comment.
	asOwner, err := f.posts.DeleteComment(ctx, owner, p.ID, &domain.DeleteCommentRequest{})
	assert.True(t, asOwner)
	assert.ErrorIs(t, err, ErrCommentIDRequired)

	_, err = f.posts.DeleteComment(ctx, owner, p.ID, &domain.DeleteCommentRequest{CommentID: "nope"})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	got, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	var cComment string
	for _, cm := range got.Comments {
		if cm.UserID == c {
			cComment = cm.ID
		}
	}

	asOwner, err = f.posts.DeleteComment(ctx, owner, p.ID, &domain.DeleteCommentRequest{CommentID: cComment})
	require.NoError(t, err)
	assert.True(t, asOwner)

	// Everybody else removes their own comment without an id.
	asOwner, err = f.posts.DeleteComment(ctx, b, p.ID, &domain.DeleteCommentRequest{CommentID: "ignored"})
	require.NoError(t, err)
	assert.False(t, asOwner)

	_, err = f.posts.DeleteComment(ctx, b, p.ID, &domain.DeleteCommentRequest{})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	got, err = f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)

	_, err = f.posts.DeleteComment(ctx, b, "missing", &domain.DeleteCommentRequest{})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestFeedOfFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	c := f.register(t, "c").User.ID

	first := f.post(t, a, "a1")
	f.post(t, c, "c1")
	second := f.post(t, a, "a2")

	feed, err := f.posts.GetFeed(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = f.users.ToggleFollow(ctx, b, a)
	require.NoError(t, err)

	feed, err = f.posts.GetFeed(ctx, b)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	ids := []string{feed[0].ID, feed[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
	for _, p := range feed {
		assert.Equal(t, a, p.OwnerID)
	}
}

func TestCreatePostRejectsForeignImageKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID

	img, err := f.posts.UploadImage(ctx, a, pngReader(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.PublicID, "posts/"+a+"/"))

	_, err = f.posts.CreatePost(ctx, b, &domain.CreatePostRequest{PublicID: img.PublicID, URL: img.URL})
	assert.ErrorIs(t, err, ErrInvalidImage)

	p, err := f.posts.CreatePost(ctx, a, &domain.CreatePostRequest{Caption: "mine", PublicID: img.PublicID, URL: img.URL})
	require.NoError(t, err)
	assert.Equal(t, a, p.OwnerID)

	_, err = f.posts.CreatePost(ctx, "ghost", &domain.CreatePostRequest{Caption: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePostWithImageAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID

	p, err := f.posts.CreatePostWithImage(ctx, a, "pic", pngReader(t))
	require.NoError(t, err)
	path := filepath.Join(f.store.BasePath(), p.Image.PublicID)
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, f.posts.DeletePost(ctx, a, p.ID))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = f.posts.CreatePostWithImage(ctx, a, "bad", strings.NewReader("nope"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestPresignUnsupportedOnLocalStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID

	_, err := f.posts.PresignImageUpload(ctx, a, "image/png")
	assert.ErrorIs(t, err, ErrPresignUnsupported)

	_, err = f.posts.PresignImageUpload(ctx, a, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

// Register A and B, B follows A, A posts, B likes then unlikes.
func TestEndToEndFollowAndLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID

	followed, err := f.users.ToggleFollow(ctx, b, a)
	require.NoError(t, err)
	require.True(t, followed)

	profA, err := f.users.GetProfile(ctx, a)
	require.NoError(t, err)
	assert.Contains(t, profA.Followers, b)
	profB, err := f.users.GetProfile(ctx, b)
	require.NoError(t, err)
	assert.Contains(t, profB.Following, a)

	p := f.post(t, a, "hello")

	_, err = f.posts.ToggleLike(ctx, b, p.ID)
	require.NoError(t, err)
	profA, err = f.users.GetProfile(ctx, a)
	require.NoError(t, err)
	require.Len(t, profA.Posts, 1)
	assert.Equal(t, []string{b}, profA.Posts[0].Likes)

	_, err = f.posts.ToggleLike(ctx, b, p.ID)
	require.NoError(t, err)
	profA, err = f.users.GetProfile(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, profA.Posts[0].Likes)
}

func TestDeletedUserCannotLikeOrComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a").User.ID
	b := f.register(t, "b").User.ID
	p := f.post(t, b, "p")

	require.NoError(t, f.users.DeleteProfile(ctx, a, nil))

	_, err := f.posts.ToggleLike(ctx, a, p.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.posts.Comment(ctx, a, p.ID, &domain.CommentRequest{Comment: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := f.postRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.Comments)
}
