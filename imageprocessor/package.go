// Package imageprocessor turns image files into normalized bitmaps and
// perceptual fingerprints.
//
// Loading goes through an extension-keyed loader registry: standard raster
// formats use the image package decoders, layered documents are flattened to
// their merged composite, and HEIC files fall back to their largest embedded
// preview extracted by exiftool.
package imageprocessor
