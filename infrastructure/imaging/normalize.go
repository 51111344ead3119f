// Package imaging converts uploaded images into the JPEG payload the
// classifier and the vision model expect.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// DefaultQuality is the JPEG quality used when re-encoding.
const DefaultQuality = 90

// DefaultMaxPixels is the largest width*height decoded by default. Larger
// headers are rejected before any pixel data is allocated.
const DefaultMaxPixels = 178956970

var (
	// ErrUnsupportedImage indicates the input could not be decoded as an image.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")

	// ErrImageTooLarge indicates the decoded image would exceed the pixel limit.
	ErrImageTooLarge = errors.New("image too large")
)

type options struct {
	maxDimension int
	maxPixels    int64
	quality      int
}

// Option configures NormalizeJPEG.
type Option func(*options)

// WithMaxDimension scales the image down so neither side exceeds n pixels.
// Zero disables scaling.
func WithMaxDimension(n int) Option {
	return func(o *options) { o.maxDimension = n }
}

// WithMaxPixels rejects images whose width*height exceeds n. Zero or less
// disables the check.
func WithMaxPixels(n int64) Option {
	return func(o *options) { o.maxPixels = n }
}

// WithQuality sets the JPEG encoding quality (1-100).
func WithQuality(q int) Option {
	return func(o *options) {
		if q >= 1 && q <= 100 {
			o.quality = q
		}
	}
}

// NormalizeJPEG decodes data, applies its EXIF orientation, optionally
// scales it, and re-encodes it as JPEG in memory.
func NormalizeJPEG(data []byte, opts ...Option) ([]byte, error) {
	o := options{quality: DefaultQuality, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); o.maxPixels > 0 && pixels > o.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, o.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	img = Orient(img, Orientation(data))
	img = fit(img, o.maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps JPEG bytes in a base64 data URL.
func DataURL(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// Orientation returns the EXIF orientation tag of data, or 1 when absent.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient returns img transformed so that it displays upright for the given
// EXIF orientation value.
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// Source-to-destination matrices for an image anchored at the origin.
	var m f64.Aff3
	switch orientation {
	case 2: // mirror horizontal
		m = f64.Aff3{-1, 0, w, 0, 1, 0}
	case 3: // rotate 180
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case 4: // mirror vertical
		m = f64.Aff3{1, 0, 0, 0, -1, h}
	case 5: // transpose
		m = f64.Aff3{0, 1, 0, 1, 0, 0}
	case 6: // rotate 90 clockwise
		m = f64.Aff3{0, -1, h, 1, 0, 0}
	case 7: // transverse
		m = f64.Aff3{0, -1, h, -1, 0, w}
	case 8: // rotate 90 counter-clockwise
		m = f64.Aff3{0, 1, 0, -1, 0, w}
	}

	minX, minY := float64(b.Min.X), float64(b.Min.Y)
	m[2] -= m[0]*minX + m[1]*minY
	m[5] -= m[3]*minX + m[4]*minY

	var dst *image.RGBA
	if orientation >= 5 {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// fit scales img so its longest side is at most maxDim, keeping the aspect
// ratio.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if sy := float64(maxDim) / float64(h); sy < scale {
		scale = sy
	}
	nw := max(1, min(maxDim, int(float64(w)*scale)))
	nh := max(1, min(maxDim, int(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
