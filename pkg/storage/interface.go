package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrPresignUnsupported is returned by backends that cannot hand out
// direct upload URLs.
var ErrPresignUnsupported = errors.New("presigned upload not supported by this storage driver")

// Storage defines the object storage operations used for post images and
// avatars.
type Storage interface {
	// Write stores content from the reader with the given key.
	// The size parameter is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the content with the given key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all content with keys starting with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// URL returns the stable public URL stored alongside image references.
	URL(key string) string

	// UploadURL returns a presigned PUT URL for direct client upload.
	UploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "local", "s3"
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// New creates the storage backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
