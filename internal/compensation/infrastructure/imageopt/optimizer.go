package imageopt

import (
	"bytes"
	"fmt"
	"log"

	"github.com/disintegration/imaging"

	"envecom-simulator/internal/compensation/application"
)

const (
	// DefaultMaxDimension is the longest side kept for uploaded bills.
	DefaultMaxDimension = 2560
	// DefaultQuality is the JPEG quality of the re-encoded upload.
	DefaultQuality = 95
)

// Optimizer downscales bill photos and re-encodes them as JPEG.
type Optimizer struct {
	maxDim  int
	quality int
	logger  *log.Logger
}

var _ application.ImageOptimizer = (*Optimizer)(nil)

// New constructs an optimizer. Non-positive values select the defaults.
func New(maxDim, quality int, logger *log.Logger) *Optimizer {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Optimizer{maxDim: maxDim, quality: quality, logger: logger}
}

// Optimize fits the image within the max dimension, keeping its aspect ratio.
// An image that already fits and re-encodes larger is returned unchanged.
func (o *Optimizer) Optimize(img application.Image) (application.Image, error) {
	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return application.Image{}, fmt.Errorf("imageopt: decode: %w", err)
	}

	bounds := decoded.Bounds()
	resized := bounds.Dx() > o.maxDim || bounds.Dy() > o.maxDim
	if resized {
		decoded = imaging.Fit(decoded, o.maxDim, o.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, imaging.JPEG, imaging.JPEGQuality(o.quality)); err != nil {
		return application.Image{}, fmt.Errorf("imageopt: encode: %w", err)
	}
	if !resized && buf.Len() >= len(img.Data) {
		return img, nil
	}

	out := decoded.Bounds()
	o.logger.Printf("image optimized: %dx%d -> %dx%d bytes=%d->%d",
		bounds.Dx(), bounds.Dy(), out.Dx(), out.Dy(), len(img.Data), buf.Len())
	return application.Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}
