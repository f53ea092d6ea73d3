package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3(t *testing.T, cfg S3Config) *S3Storage {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")
	cfg.AccessKeyID = "AKIDEXAMPLE"
	cfg.SecretAccessKey = "secret"
	s, err := NewS3Storage(context.Background(), cfg)
	require.NoError(t, err)
	return s
}

func TestS3RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestS3URL(t *testing.T) {
	aws := newTestS3(t, S3Config{Bucket: "media", Region: "eu-west-1"})
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/posts/u1/a.jpg", aws.URL("/posts/u1/a.jpg"))

	minio := newTestS3(t, S3Config{Bucket: "media", Endpoint: "http://minio:9000/", UsePathStyle: true})
	assert.Equal(t, "http://minio:9000/media/avatars/u1/b.jpg", minio.URL("avatars/u1/b.jpg"))

	pathStyle := newTestS3(t, S3Config{Bucket: "media", UsePathStyle: true})
	assert.Equal(t, "https://s3.us-east-1.amazonaws.com/media/k.jpg", pathStyle.URL("k.jpg"))

	public := newTestS3(t, S3Config{Bucket: "media", Endpoint: "http://minio:9000", PublicURL: "https://cdn.example/"})
	assert.Equal(t, "https://cdn.example/posts/u1/a.jpg", public.URL("posts/u1/a.jpg"))
}

func TestS3UploadURLIsPresigned(t *testing.T) {
	s := newTestS3(t, S3Config{
		Bucket:       "media",
		Endpoint:     "http://minio:9000",
		PublicURL:    "https://files.example",
		UsePathStyle: true,
	})

	raw, err := s.UploadURL(context.Background(), "posts/u1/c.jpg", "image/jpeg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "files.example", u.Host)
	assert.True(t, strings.HasSuffix(u.Path, "/media/posts/u1/c.jpg"), u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
