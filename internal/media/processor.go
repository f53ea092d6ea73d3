// Package media turns uploaded pictures into stored post images and
// avatars.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/storage"
)

var (
	ErrInvalidImage    = errors.New("invalid image")
	ErrUnsupportedType = errors.New("unsupported image content type")
)

const (
	postPrefix   = "posts/"
	avatarPrefix = "avatars/"
)

var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Options sizes the processed output.
type Options struct {
	MaxDimension int
	AvatarSize   int
	JPEGQuality  int
}

// Processor decodes uploads, resizes them and writes JPEGs to storage.
type Processor struct {
	store storage.Storage
	keys  idgen.Generator
	opts  Options
}

func NewProcessor(store storage.Storage, keys idgen.Generator, opts Options) *Processor {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1080
	}
	if opts.AvatarSize <= 0 {
		opts.AvatarSize = 256
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	return &Processor{store: store, keys: keys, opts: opts}
}

// StorePostImage keeps the aspect ratio and bounds the longer side by
// MaxDimension. Smaller images are stored unscaled.
func (p *Processor) StorePostImage(ctx context.Context, ownerID string, r io.Reader) (domain.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, p.opts.MaxDimension, p.opts.MaxDimension, imaging.Lanczos)
	return p.write(ctx, postPrefix+ownerID+"/", img)
}

// StoreAvatar crops the centre square and scales it to AvatarSize.
func (p *Processor) StoreAvatar(ctx context.Context, userID string, r io.Reader) (domain.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fill(img, p.opts.AvatarSize, p.opts.AvatarSize, imaging.Center, imaging.Lanczos)
	return p.write(ctx, avatarPrefix+userID+"/", img)
}

func (p *Processor) write(ctx context.Context, prefix string, img image.Image) (domain.Image, error) {
	l := log.Ctx(ctx)

	id, err := p.keys.Generate()
	if err != nil {
		return domain.Image{}, err
	}
	key := prefix + id + ".jpg"

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.JPEGQuality)); err != nil {
		return domain.Image{}, fmt.Errorf("encode image: %w", err)
	}
	if err := p.store.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		return domain.Image{}, fmt.Errorf("upload image: %w", err)
	}

	b := img.Bounds()
	l.Info().Str("key", key).Int("width", b.Dx()).Int("height", b.Dy()).Msg("stored image")
	return domain.Image{PublicID: key, URL: p.store.URL(key)}, nil
}

// PresignPostUpload reserves a key under the owner's post prefix and
// returns a URL the client can PUT the raw file to.
func (p *Processor) PresignPostUpload(ctx context.Context, ownerID, contentType string, expires time.Duration) (*domain.PresignResponse, error) {
	ext, ok := uploadExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	id, err := p.keys.Generate()
	if err != nil {
		return nil, err
	}
	key := postPrefix + ownerID + "/" + id + ext

	url, err := p.store.UploadURL(ctx, key, contentType, expires)
	if err != nil {
		return nil, err
	}
	return &domain.PresignResponse{
		UploadURL: url,
		Image:     domain.Image{PublicID: key, URL: p.store.URL(key)},
		ExpiresIn: int(expires.Seconds()),
	}, nil
}

// Delete removes a stored image. Placeholders own no object.
func (p *Processor) Delete(ctx context.Context, img domain.Image) error {
	if img.IsPlaceholder() {
		return nil
	}
	return p.store.Delete(ctx, img.PublicID)
}

// DeleteUserObjects removes every avatar and post image stored for userID.
func (p *Processor) DeleteUserObjects(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := p.store.DeletePrefix(ctx, avatarPrefix+userID+"/"); err != nil {
		return err
	}
	return p.store.DeletePrefix(ctx, postPrefix+userID+"/")
}

// Owns reports whether key lies under ownerID's post prefix, i.e. was
// issued to that user.
func Owns(key, ownerID string) bool {
	return strings.HasPrefix(key, postPrefix+ownerID+"/")
}

// IsPostKey reports whether key names a stored post image of any user.
func IsPostKey(key string) bool {
	return strings.HasPrefix(key, postPrefix)
}
