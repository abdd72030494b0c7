package imageprocessor

import (
	"fmt"

	"visdedupe/types"

	"github.com/corona10/goimagehash/etcs"
	"github.com/corona10/goimagehash/transforms"
	"github.com/disintegration/imaging"
)

const (
	// hashSide is the side of the low-frequency DCT block kept by the hash;
	// hashSide*hashSide bits in total.
	hashSide = 16
	// dctSide is the grayscale thumbnail the DCT runs on
	dctSide = hashSide * 4
)

// ComputeFingerprint computes the 256-bit DCT perceptual hash of a
// normalized bitmap. The bitmap is converted to grayscale and resampled to
// dctSide x dctSide with Lanczos before the transform, so the same picture
// stored at different resolutions yields nearly the same bits.
func ComputeFingerprint(img *types.NormalizedImage) (types.Fingerprint, error) {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return types.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}

	gray := imaging.Grayscale(img.Image())
	small := imaging.Resize(gray, dctSide, dctSide, imaging.Lanczos)

	dct := transforms.DCT2D(transforms.Rgb2Gray(small), dctSide, dctSide)
	low := transforms.FlattenPixels(dct, hashSide, hashSide)
	median := etcs.MedianOfPixels(low)

	var fp types.Fingerprint
	for idx, v := range low {
		if v > median {
			fp[idx/64] |= 1 << uint(63-idx%64)
		}
	}
	return fp, nil
}
