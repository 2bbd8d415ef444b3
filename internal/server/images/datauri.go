// Package images decodes recipe images sent as base64 data URIs and keeps
// them in object storage.
package images

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/foodgram/internal/common"
)

// MaxImageSize bounds a decoded image.
const MaxImageSize = 10 << 20

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extByType = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ParseDataURI decodes "data:image/png;base64,<payload>".
func ParseDataURI(s string) (*Image, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("%w: image is not a data uri", common.ErrorValidation)
	}

	mediaType, encoding, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if encoding != "base64" {
		return nil, fmt.Errorf("%w: image must be base64 encoded", common.ErrorValidation)
	}

	mediaType = strings.ToLower(mediaType)
	ext, ok := extByType[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", common.ErrorValidation, mediaType)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return nil, fmt.Errorf("%w: image too large", common.ErrorValidation)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad image payload: %v", common.ErrorValidation, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrorValidation)
	}

	return &Image{Data: data, ContentType: mediaType, Ext: ext}, nil
}
