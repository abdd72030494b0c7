package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"
	"sync"

	"visdedupe/logging"

	"github.com/barasher/go-exiftool"
)

// previewTags are the embedded preview tags tried in order of preference
var previewTags = []string{
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"JpgFromRaw",
	"ThumbnailImage",
}

// HEICPreviewLoader decodes HEIC files through their largest embedded JPEG
// preview, extracted by the exiftool binary.
type HEICPreviewLoader struct {
	BaseImageLoader

	once      sync.Once
	available bool
}

// NewHEICPreviewLoader creates a new HEIC loader
func NewHEICPreviewLoader() *HEICPreviewLoader {
	return &HEICPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatHEIC},
		},
	}
}

// hasExiftool checks if exiftool is available on the system
func (l *HEICPreviewLoader) hasExiftool() bool {
	l.once.Do(func() {
		_, err := exec.LookPath("exiftool")
		l.available = err == nil
	})
	return l.available
}

// LoadImage extracts and decodes the best available embedded preview
func (l *HEICPreviewLoader) LoadImage(path string) (image.Image, error) {
	if !l.hasExiftool() {
		return nil, newImageLoadError("exiftool not found, cannot decode HEIC", path)
	}

	tags, err := availablePreviewTags(path)
	if err != nil {
		return nil, newDecodeError(path, err)
	}
	if len(tags) == 0 {
		return nil, newImageLoadError("no embedded preview found", path)
	}

	var lastErr error
	for _, tag := range tags {
		img, err := extractPreview(path, tag)
		if err == nil {
			logging.DebugLog("Decoded %s via embedded %s", path, tag)
			return img, nil
		}
		lastErr = err
	}
	return nil, newDecodeError(path, lastErr)
}

// availablePreviewTags reads the file metadata and returns the preview tags
// it carries, in preference order.
func availablePreviewTags(path string) ([]string, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}
	defer et.Close()

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return nil, fmt.Errorf("no metadata extracted")
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fileInfo.Err
	}

	var found []string
	for _, tag := range previewTags {
		if _, ok := fileInfo.Fields[tag]; ok {
			found = append(found, tag)
		}
	}
	return found, nil
}

// extractPreview runs exiftool in binary mode and decodes its output.
// go-exiftool does not stream binary tag values, so the command is invoked
// directly.
func extractPreview(path, tag string) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command("exiftool", "-b", "-"+tag, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool -%s failed: %w: %s", tag, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("exiftool -%s produced no data", tag)
	}

	img, _, err := image.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", tag, err)
	}
	return img, nil
}
