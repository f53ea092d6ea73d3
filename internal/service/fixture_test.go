package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-social/internal/cache"
	"github.com/weiawesome/wes-io-social/internal/credential"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/internal/mailer"
	"github.com/weiawesome/wes-io-social/internal/media"
	"github.com/weiawesome/wes-io-social/internal/notify"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/internal/search"
	"github.com/weiawesome/wes-io-social/internal/testutil"
	"github.com/weiawesome/wes-io-social/pkg/jwt"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
	"github.com/weiawesome/wes-io-social/pkg/storage"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	users    *userServiceImpl
	posts    PostService
	userRepo *repository.GormUserRepository
	follows  *repository.GormFollowRepository
	postRepo *repository.GormPostRepository
	profiles *Profiles
	tokens   *jwt.Manager
	hasher   *credential.Hasher
	mail     *fakeMailer
	pub      *recordingPublisher
	store    *storage.LocalStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	client, _ := testutil.NewRedis(t)

	userRepo := repository.NewGormUserRepository(db, idgen.MustNew(idgen.UUID))
	follows := repository.NewGormFollowRepository(db)
	postRepo := repository.NewGormPostRepository(db, idgen.MustNew(idgen.ULID), idgen.MustNew(idgen.KSUID))

	tokens, err := jwt.NewManager("test-secret", time.Hour, "test", cache.NewRedisRevocations(client, "test"))
	require.NoError(t, err)

	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), PublicPath: "/uploads"})
	require.NoError(t, err)
	images := media.NewProcessor(store, idgen.MustNew(idgen.CUID2), media.Options{MaxDimension: 64, AvatarSize: 16})

	profiles := NewProfiles(userRepo, follows, postRepo, cache.NewRedisProfileCache(client, "test"), time.Minute)
	hasher := credential.NewHasher(4)
	mail := &fakeMailer{}
	pub := &recordingPublisher{}
	notifier := notify.NewNotifier(pub)

	users := NewUserService(UserDeps{
		Users:    userRepo,
		Follows:  follows,
		Profiles: profiles,
		Hasher:   hasher,
		Tokens:   tokens,
		Mailer:   mail,
		Index:    search.NewDBUserIndex(userRepo),
		Images:   images,
		Notifier: notifier,
	}).(*userServiceImpl)

	posts := NewPostService(PostDeps{
		Posts:    postRepo,
		Users:    userRepo,
		Follows:  follows,
		Profiles: profiles,
		Images:   images,
		Notifier: notifier,
	})

	return &fixture{
		db:       db,
		users:    users,
		posts:    posts,
		userRepo: userRepo,
		follows:  follows,
		postRepo: postRepo,
		profiles: profiles,
		tokens:   tokens,
		hasher:   hasher,
		mail:     mail,
		pub:      pub,
		store:    store,
	}
}

func (f *fixture) register(t *testing.T, name string) *domain.AuthResponse {
	t.Helper()
	res, err := f.users.Register(context.Background(), &domain.RegisterRequest{
		Name:     name,
		Email:    name + "@x.io",
		Password: "secret-" + name,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) post(t *testing.T, ownerID, caption string) *domain.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), ownerID, &domain.CreatePostRequest{
		Caption:  caption,
		PublicID: "external/" + caption,
		URL:      "https://img.example/" + caption,
	})
	require.NoError(t, err)
	return p
}

func pngReader(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	return bytes.NewReader(buf.Bytes())
}

var errSMTPDown = errors.New("smtp down")
