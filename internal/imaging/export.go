package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// ExportResult contains an encoded canvas snapshot.
type ExportResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Export encodes img as a base64 PNG, optionally scaled.
//
// A scale of 1 (or any non-positive value) keeps the original size. Scaled
// output uses Lanczos resampling and is never smaller than 1×1.
func Export(img image.Image, scale float64) (*ExportResult, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot export an empty image")
	}

	out := Scale(img, scale)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &ExportResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Scale resizes img by factor with Lanczos resampling. Factors of 1 or
// below zero return img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	w := max(int(float64(img.Bounds().Dx())*factor), 1)
	h := max(int(float64(img.Bounds().Dy())*factor), 1)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// SaveImage writes img to path as a PNG file.
func SaveImage(path string, img image.Image) error {
	if img.Bounds().Empty() {
		return fmt.Errorf("cannot save an empty image")
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
