package types

import (
	"image"
	"time"
)

// FormatTag separates flat raster inputs from layered design files
type FormatTag string

const (
	FormatRaster  FormatTag = "raster"
	FormatLayered FormatTag = "layered"
)

// SourceFile is a discovered input file. Identity is the absolute path.
type SourceFile struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
	Format  FormatTag `json:"format"`
}

// NormalizedImage is a decoded bitmap in packed 8-bit RGB, no alpha.
// Pix holds 3*Width*Height bytes, row-major.
type NormalizedImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewNormalizedImage allocates a zeroed (black) bitmap
func NewNormalizedImage(width, height int) *NormalizedImage {
	return &NormalizedImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 3*width*height),
	}
}

// RGBAt returns the channels at (x, y)
func (n *NormalizedImage) RGBAt(x, y int) (r, g, b uint8) {
	i := 3 * (y*n.Width + x)
	return n.Pix[i], n.Pix[i+1], n.Pix[i+2]
}

// SetRGB sets the channels at (x, y)
func (n *NormalizedImage) SetRGB(x, y int, r, g, b uint8) {
	i := 3 * (y*n.Width + x)
	n.Pix[i], n.Pix[i+1], n.Pix[i+2] = r, g, b
}

// Image expands the bitmap into an opaque *image.NRGBA for hashing and
// preview encoding.
func (n *NormalizedImage) Image() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, n.Width, n.Height))
	for p, q := 0, 0; p < len(n.Pix); p, q = p+3, q+4 {
		out.Pix[q] = n.Pix[p]
		out.Pix[q+1] = n.Pix[p+1]
		out.Pix[q+2] = n.Pix[p+2]
		out.Pix[q+3] = 0xff
	}
	return out
}

// CatalogItem is one surviving source file after coalescing, with its
// fingerprint and an inline preview for the report.
type CatalogItem struct {
	SourceFile
	Fingerprint Fingerprint `json:"hash"`
	Preview     string      `json:"-"` // data: URL
	CaptureTime time.Time   `json:"capture_time,omitempty"`
	Cached      bool        `json:"-"`
}

// Cluster is a group of catalog item indices believed to show the same
// picture. Members are ascending; Representative is one of them.
type Cluster struct {
	Members        []int `json:"members"`
	Representative int   `json:"representative"`
}

// IsDuplicateGroup reports whether the cluster holds more than one file
func (c Cluster) IsDuplicateGroup() bool {
	return len(c.Members) > 1
}

// DedupAction is a planned move of a non-representative file
type DedupAction struct {
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	ClusterIndex int    `json:"cluster"`
}

// SkipReason classifies why a file was excluded from clustering
type SkipReason string

const (
	SkipUnsupportedFormat SkipReason = "unsupported-format"
	SkipDecodeError       SkipReason = "decode-error"
	SkipHashError         SkipReason = "hash-error"
	SkipStatError         SkipReason = "stat-error"
	SkipNameVariant       SkipReason = "name-variant"
	SkipCancelled         SkipReason = "cancelled"
)

// SkipRecord is the audit entry for an excluded file
type SkipRecord struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}
