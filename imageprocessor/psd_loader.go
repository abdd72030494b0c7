package imageprocessor

import (
	"bufio"
	"image"
	"os"

	"github.com/oov/psd"
)

// LayeredImageLoader flattens layered design documents to the merged
// composite stored alongside the layers.
type LayeredImageLoader struct {
	BaseImageLoader
}

// NewLayeredImageLoader creates a loader for layered formats
func NewLayeredImageLoader() *LayeredImageLoader {
	return &LayeredImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatPSD},
		},
	}
}

// LoadImage returns the document's composite. Individual layer pixels are
// not decoded.
func (l *LayeredImageLoader) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, _, err := psd.Decode(bufio.NewReader(f), &psd.DecodeOptions{SkipLayerImage: true})
	if err != nil {
		return nil, newDecodeError(path, err)
	}
	if doc.Picker == nil {
		return nil, newImageLoadError("layered file has no merged composite", path)
	}
	return doc.Picker, nil
}
