package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	compensation "envecom-simulator/internal/compensation/domain"
)

type stubExtractor struct {
	calls  int
	got    Image
	result compensation.PartialBillInput
	err    error
	block  bool
}

func (s *stubExtractor) Extract(ctx context.Context, img Image) (compensation.PartialBillInput, error) {
	s.calls++
	s.got = img
	if s.block {
		<-ctx.Done()
		return compensation.PartialBillInput{}, ctx.Err()
	}
	return s.result, s.err
}

type stubOptimizer struct {
	calls int
	err   error
}

func (s *stubOptimizer) Optimize(img Image) (Image, error) {
	s.calls++
	if s.err != nil {
		return Image{}, s.err
	}
	return Image{Data: []byte("small"), MIMEType: "image/jpeg"}, nil
}

func newTestExtraction(t *testing.T, extractor Extractor, optimizer ImageOptimizer, cfg ExtractionConfig) *ExtractionService {
	t.Helper()
	svc, err := NewExtractionService(extractor, optimizer, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new extraction service: %v", err)
	}
	return svc
}

func TestNewExtractionService_Defaults(t *testing.T) {
	if _, err := NewExtractionService(nil, nil, ExtractionConfig{}, nil); err == nil {
		t.Fatalf("expected error for nil extractor")
	}
	svc := newTestExtraction(t, &stubExtractor{}, nil, ExtractionConfig{})
	if svc.MaxBytes() != DefaultMaxUploadBytes {
		t.Fatalf("max bytes mismatch: got=%d want=%d", svc.MaxBytes(), DefaultMaxUploadBytes)
	}
}

func TestExtract_RejectsEmptyAndOversized(t *testing.T) {
	extractor := &stubExtractor{}
	svc := newTestExtraction(t, extractor, nil, ExtractionConfig{MaxBytes: 4})

	if _, err := svc.Extract(context.Background(), nil, "image/png"); !errors.Is(err, compensation.ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := svc.Extract(context.Background(), []byte("12345"), "image/png"); !errors.Is(err, compensation.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatalf("extractor should not be called, got %d calls", extractor.calls)
	}
}

func TestExtract_OptimizesImages(t *testing.T) {
	extractor := &stubExtractor{result: compensation.PartialBillInput{ClientName: compensation.String("Maria")}}
	optimizer := &stubOptimizer{}
	svc := newTestExtraction(t, extractor, optimizer, ExtractionConfig{})

	partial, err := svc.Extract(context.Background(), []byte("raw-image"), "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if partial.Resolve().ClientName != "Maria" {
		t.Fatalf("unexpected partial: %+v", partial.Resolve())
	}
	if optimizer.calls != 1 || extractor.calls != 1 {
		t.Fatalf("call count mismatch: optimizer=%d extractor=%d", optimizer.calls, extractor.calls)
	}
	if string(extractor.got.Data) != "small" || extractor.got.MIMEType != "image/jpeg" {
		t.Fatalf("extractor should receive optimized image, got %q %s", extractor.got.Data, extractor.got.MIMEType)
	}
}

func TestExtract_PassesPDFThrough(t *testing.T) {
	extractor := &stubExtractor{}
	optimizer := &stubOptimizer{}
	svc := newTestExtraction(t, extractor, optimizer, ExtractionConfig{})
	pdf := []byte("%PDF-1.4")

	if _, err := svc.Extract(context.Background(), pdf, "application/pdf"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if optimizer.calls != 0 {
		t.Fatalf("pdf should not be optimized")
	}
	if !bytes.Equal(extractor.got.Data, pdf) || extractor.got.MIMEType != "application/pdf" {
		t.Fatalf("pdf should pass through unchanged, got %q %s", extractor.got.Data, extractor.got.MIMEType)
	}
}

func TestExtract_OptimizerFailureKeepsOriginal(t *testing.T) {
	extractor := &stubExtractor{}
	svc := newTestExtraction(t, extractor, &stubOptimizer{err: errors.New("decode")}, ExtractionConfig{})

	if _, err := svc.Extract(context.Background(), []byte("raw"), "image/webp"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(extractor.got.Data) != "raw" || extractor.got.MIMEType != "image/webp" {
		t.Fatalf("expected original image, got %q %s", extractor.got.Data, extractor.got.MIMEType)
	}
}

func TestExtract_WrapsFailures(t *testing.T) {
	cause := errors.New("status 500")
	extractor := &stubExtractor{err: cause}
	svc := newTestExtraction(t, extractor, nil, ExtractionConfig{})

	_, err := svc.Extract(context.Background(), []byte("raw"), "image/png")
	if !errors.Is(err, compensation.ErrExtractionFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped extraction failure, got %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", extractor.calls)
	}
}

func TestExtract_Unavailable(t *testing.T) {
	svc := newTestExtraction(t, &stubExtractor{err: compensation.ErrExtractorUnavailable}, nil, ExtractionConfig{})

	_, err := svc.Extract(context.Background(), []byte("raw"), "image/png")
	if !errors.Is(err, compensation.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
	if errors.Is(err, compensation.ErrExtractionFailed) {
		t.Fatalf("unavailable extractor should not be reported as a failed call")
	}
}

func TestExtract_Timeout(t *testing.T) {
	extractor := &stubExtractor{block: true}
	svc := newTestExtraction(t, extractor, nil, ExtractionConfig{Timeout: 10 * time.Millisecond})

	_, err := svc.Extract(context.Background(), []byte("raw"), "image/png")
	if !errors.Is(err, compensation.ErrExtractionFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("expected no retry, got %d calls", extractor.calls)
	}
}

func TestNormalizeMIMEType(t *testing.T) {
	cases := map[string]string{
		"":                         "image/jpeg",
		"Image/PNG":                "image/png",
		"image/jpeg; charset=utf8": "image/jpeg",
		"application/pdf":          "application/pdf",
	}
	for in, want := range cases {
		if got := NormalizeMIMEType(in); got != want {
			t.Fatalf("normalize %q mismatch: got=%q want=%q", in, got, want)
		}
	}
}
