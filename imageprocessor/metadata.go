package imageprocessor

import (
	"os"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

const exifDateLayout = "2006:01:02 15:04:05"

// ReadCaptureTime returns the EXIF DateTimeOriginal of a file, if present.
// Any parse failure yields ok=false; capture time is informational only.
func ReadCaptureTime(path string) (t time.Time, ok bool) {
	switch GetFileFormat(path) {
	case FormatJPEG, FormatPNG, FormatTIFF, FormatWEBP:
	default:
		return time.Time{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "DateTimeOriginal"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if parsed, good := parseExifTime(ti.Value); good {
				t, ok = parsed, true
			}
			return nil
		},
	})
	if err != nil && !ok {
		return time.Time{}, false
	}
	return t, ok
}

func parseExifTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		parsed, err := time.ParseInLocation(exifDateLayout, strings.TrimSpace(val), time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
