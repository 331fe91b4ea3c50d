package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"strings"
	"time"

	compensation "envecom-simulator/internal/compensation/domain"
	"envecom-simulator/internal/observability/metrics"
)

const (
	// DefaultMaxUploadBytes is the largest payload accepted for extraction.
	DefaultMaxUploadBytes = 10 << 20
	// DefaultExtractTimeout bounds the single extraction call.
	DefaultExtractTimeout = 60 * time.Second
	// DefaultMIMEType is assumed when the client sends no media type.
	DefaultMIMEType = "image/jpeg"
)

// Image is an uploaded bill image or PDF.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extractor reads bill fields from an image.
type Extractor interface {
	Extract(ctx context.Context, img Image) (compensation.PartialBillInput, error)
}

// ImageOptimizer shrinks an image before it is sent for extraction.
type ImageOptimizer interface {
	Optimize(img Image) (Image, error)
}

// ExtractionConfig bounds extraction requests.
type ExtractionConfig struct {
	MaxBytes int
	Timeout  time.Duration
}

// ExtractionService validates uploads and calls the extractor exactly once.
type ExtractionService struct {
	extractor Extractor
	optimizer ImageOptimizer
	cfg       ExtractionConfig
	logger    *log.Logger
}

// NewExtractionService constructs the service. The optimizer is optional.
func NewExtractionService(extractor Extractor, optimizer ImageOptimizer, cfg ExtractionConfig, logger *log.Logger) (*ExtractionService, error) {
	if extractor == nil {
		return nil, errors.New("extraction service: nil extractor")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxUploadBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExtractTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExtractionService{extractor: extractor, optimizer: optimizer, cfg: cfg, logger: logger}, nil
}

// MaxBytes returns the upload limit.
func (s *ExtractionService) MaxBytes() int {
	return s.cfg.MaxBytes
}

// Extract returns the best-effort bill fields found in data. Collaborator
// failures are wrapped in ErrExtractionFailed.
func (s *ExtractionService) Extract(ctx context.Context, data []byte, mimeType string) (compensation.PartialBillInput, error) {
	start := time.Now()
	partial, err := s.extract(ctx, data, mimeType)
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, compensation.ErrExtractorUnavailable):
		result = metrics.ResultUnavailable
	case errors.Is(err, compensation.ErrEmptyImage), errors.Is(err, compensation.ErrImageTooLarge):
		result = metrics.ResultInvalid
	case err != nil:
		result = metrics.ResultError
	}
	metrics.ObserveExtraction(result, time.Since(start))
	if err != nil {
		s.logger.Printf("extraction %s: %v", result, err)
		return compensation.PartialBillInput{}, err
	}
	return partial, nil
}

func (s *ExtractionService) extract(ctx context.Context, data []byte, mimeType string) (compensation.PartialBillInput, error) {
	if len(data) == 0 {
		return compensation.PartialBillInput{}, compensation.ErrEmptyImage
	}
	if len(data) > s.cfg.MaxBytes {
		return compensation.PartialBillInput{}, fmt.Errorf("%w: %d bytes exceeds %d", compensation.ErrImageTooLarge, len(data), s.cfg.MaxBytes)
	}

	img := Image{Data: data, MIMEType: NormalizeMIMEType(mimeType)}
	if s.optimizer != nil && strings.HasPrefix(img.MIMEType, "image/") {
		optimized, err := s.optimizer.Optimize(img)
		if err != nil {
			metrics.IncImageOptimize(metrics.ResultError)
			s.logger.Printf("image optimize failed, sending original: %v", err)
		} else {
			metrics.IncImageOptimize(metrics.ResultSuccess)
			img = optimized
		}
	}
	metrics.ObserveUploadSize(len(img.Data))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	partial, err := s.extractor.Extract(ctx, img)
	if err != nil {
		if errors.Is(err, compensation.ErrExtractorUnavailable) {
			return compensation.PartialBillInput{}, err
		}
		return compensation.PartialBillInput{}, fmt.Errorf("%w: %w", compensation.ErrExtractionFailed, err)
	}
	return partial, nil
}

// NormalizeMIMEType lowercases a media type, drops its parameters and
// applies the image/jpeg default.
func NormalizeMIMEType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultMIMEType
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return parsed
	}
	return strings.ToLower(value)
}
