package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime/debug"

	"visdedupe/logging"
	"visdedupe/types"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxSide bounds the long edge of a normalized bitmap
	DefaultMaxSide = 1024

	// DefaultPreviewWidth bounds the width of report thumbnails
	DefaultPreviewWidth = 320

	previewJPEGQuality = 82
)

// DefaultBackground is the color transparent pixels are flattened onto.
// White keeps mostly-transparent artwork from hashing alike just because
// it is transparent.
var DefaultBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Normalizer decodes files into canonical bitmaps for hashing
type Normalizer struct {
	MaxSide    int         // long edge bound, <= 0 disables downscaling
	Background color.NRGBA // alpha flattening color, must be opaque

	registry *ImageLoaderRegistry
}

// NewNormalizer creates a normalizer with the default loader registry and a
// white background.
func NewNormalizer(maxSide int) *Normalizer {
	return &Normalizer{
		MaxSide:    maxSide,
		Background: DefaultBackground,
		registry:   NewImageLoaderRegistry(),
	}
}

// Normalize decodes path and returns its normalized bitmap. Failures are
// *UnsupportedFormatError or *DecodeError.
func (n *Normalizer) Normalize(path string) (img *types.NormalizedImage, err error) {
	// Third-party decoders may panic on malformed input
	defer func() {
		if r := recover(); r != nil {
			logging.DebugLog("Panic while decoding %s: %v\n%s", path, r, debug.Stack())
			img = nil
			err = newDecodeError(path, fmt.Errorf("decoder panic: %v", r))
		}
	}()

	raw, err := n.registry.LoadImage(path)
	if err != nil {
		var unsupported *UnsupportedFormatError
		var decodeErr *DecodeError
		if errors.As(err, &unsupported) || errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, newDecodeError(path, err)
	}

	img, err = NormalizeImage(raw, n.MaxSide, n.Background)
	if err != nil {
		return nil, newDecodeError(path, err)
	}
	return img, nil
}

// NormalizeImage downscales src so its long edge is at most maxSide
// (Lanczos, aspect preserved), flattens alpha onto bg and converts to RGB.
func NormalizeImage(src image.Image, maxSide int, bg color.NRGBA) (*types.NormalizedImage, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, errors.New("image has no pixels")
	}

	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		src = imaging.Fit(src, maxSide, maxSide, imaging.Lanczos)
		b = src.Bounds()
	}

	bg.A = 0xff
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	canvas = imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)

	out := types.NewNormalizedImage(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < out.Width; x++ {
			out.SetRGB(x, y, row[4*x], row[4*x+1], row[4*x+2])
		}
	}
	return out, nil
}

// MakePreview re-encodes a normalized bitmap as a small JPEG data URL for
// inline embedding in the report.
func MakePreview(img *types.NormalizedImage, maxWidth int) (string, error) {
	var thumb image.Image = img.Image()
	if maxWidth > 0 && img.Width > maxWidth {
		thumb = imaging.Resize(thumb, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(previewJPEGQuality)); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return EncodeDataURL(buf.Bytes(), "image/jpeg"), nil
}
