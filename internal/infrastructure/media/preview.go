package media

import (
	"bytes"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// PreviewProcessor turns a rendered raster diagram into a WebP preview.
type PreviewProcessor struct {
	store   *Store
	width   int
	quality float32
}

// NewPreviewProcessor creates a processor producing previews width pixels
// wide. A width of zero disables previews.
func NewPreviewProcessor(store *Store, width int, quality float32) *PreviewProcessor {
	return &PreviewProcessor{store: store, width: width, quality: quality}
}

// Enabled reports whether previews are produced.
func (p *PreviewProcessor) Enabled() bool {
	return p != nil && p.width > 0
}

// Encode decodes a raster image, scales it down to the preview width keeping
// the aspect ratio, and encodes it as WebP. Smaller images are not enlarged.
func (p *PreviewProcessor) Encode(raster []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > p.width {
		img = imaging.Resize(img, p.width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Save encodes and stores the preview for a part. Returns the relative path.
func (p *PreviewProcessor) Save(partID int64, raster []byte) (string, error) {
	encoded, err := p.Encode(raster)
	if err != nil {
		return "", err
	}
	return p.store.SaveHarnessFile(partID, "webp", encoded)
}
