// Package storage processes and stores profile photos.
package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// PhotoSize is the edge length of a stored profile photo, in pixels.
	PhotoSize        = 512
	PhotoContentType = "image/jpeg"
	photoQuality     = 85
)

// ProcessProfilePhoto decodes an uploaded image (honouring EXIF orientation),
// center-crops it to a square of PhotoSize and encodes it as JPEG.
func ProcessProfilePhoto(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("photo has no pixels")
	}

	img = imaging.Fill(img, PhotoSize, PhotoSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(photoQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
