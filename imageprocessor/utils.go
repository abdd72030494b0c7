package imageprocessor

import (
	"encoding/base64"
	"fmt"
)

// EncodeDataURL creates a data: URI from bytes and MIME type
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
