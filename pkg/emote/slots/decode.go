package slots

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/nfnt/resize"
	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder defaults
const (
	DefaultThumbnailSize = 128
	DefaultCacheTTL      = 30 * time.Minute
)

// Preview is the displayable form of a bound image.
type Preview struct {
	// DataURL embeds the original bytes; it is always set.
	DataURL string `json:"data_url"`

	// Format, Width and Height are empty when the bytes could not be decoded.
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`

	// Thumbnail is a PNG no larger than the decoder's thumbnail size.
	Thumbnail []byte `json:"-"`

	Checksum string `json:"checksum"`
}

// ImageDecoder turns a blob into its preview.
type ImageDecoder interface {
	Decode(ctx context.Context, blob Blob) (*Preview, error)
}

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	ThumbnailSize uint
	CacheTTL      time.Duration
	Logger        hclog.Logger
}

// Decoder builds previews and caches them by declared media type and
// content checksum, so the same upload is decoded at most once per TTL.
type Decoder struct {
	cache  *cache.Cache
	thumb  uint
	logger hclog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewDecoder creates a Decoder.
func NewDecoder(opts DecoderOptions) *Decoder {
	if opts.ThumbnailSize == 0 {
		opts.ThumbnailSize = DefaultThumbnailSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Decoder{
		cache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		thumb:  opts.ThumbnailSize,
		logger: opts.Logger.Named("decoder"),
	}
}

// Decode returns the preview for blob. Bytes that are not a decodable
// image still produce a preview holding only the data URL and checksum.
func (d *Decoder) Decode(ctx context.Context, blob Blob) (*Preview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := CalculateChecksum(blob.Data, ChecksumSHA256)
	key := strings.ToLower(strings.TrimSpace(blob.MediaType)) + "|" + sum
	if cached, ok := d.cache.Get(key); ok {
		d.hits.Add(1)
		d.logger.Trace("🗃️ Preview cache hit", "name", blob.Name, "checksum", sum)
		return cached.(*Preview), nil
	}
	d.misses.Add(1)

	p := &Preview{
		DataURL:  EncodeDataURL(blob.MediaType, blob.Data),
		Checksum: sum,
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob.Data))
	if err != nil {
		d.logger.Debug("⚠️ Image not decodable, keeping raw preview", "name", blob.Name, "media_type", blob.MediaType, "error", err)
	} else {
		p.Format = format
		p.Width = cfg.Width
		p.Height = cfg.Height

		if thumb, err := d.thumbnail(blob.Data); err != nil {
			d.logger.Debug("⚠️ Thumbnail failed", "name", blob.Name, "error", err)
		} else {
			p.Thumbnail = thumb
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.cache.Set(key, p, cache.DefaultExpiration)
	d.logger.Debug("🖼️ Decoded image", "name", blob.Name, "format", p.Format, "width", p.Width, "height", p.Height)
	return p, nil
}

// Stats reports cache hits and misses since creation.
func (d *Decoder) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

func (d *Decoder) thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	small := resize.Thumbnail(d.thumb, d.thumb, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
