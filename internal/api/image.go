package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

// decodeImage accepts raw base64 or a data URL. The MIME type falls back to
// the data URL prefix and then to content sniffing.
func decodeImage(req models.ImageRequest, maxSize int64) (ai.Image, error) {
	data := strings.TrimSpace(req.Image)
	if data == "" {
		return ai.Image{}, fmt.Errorf("%w: image is required", profile.ErrValidation)
	}

	mimeType := req.MIMEType
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return ai.Image{}, fmt.Errorf("%w: image must be base64 encoded", profile.ErrValidation)
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(header, ";base64")
		}
		data = payload
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return ai.Image{}, fmt.Errorf("%w: image is not valid base64", profile.ErrValidation)
	}
	if maxSize > 0 && int64(len(raw)) > maxSize {
		return ai.Image{}, fmt.Errorf("%w: image exceeds %d bytes", profile.ErrValidation, maxSize)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ai.Image{}, fmt.Errorf("%w: unsupported content type %q", profile.ErrValidation, mimeType)
	}
	return ai.Image{Data: raw, MIMEType: mimeType}, nil
}
