package compensation

import "errors"

var (
	// ErrUnknownConnectionClass is returned when the policy rejects an unrecognized connection class.
	ErrUnknownConnectionClass = errors.New("compensation: unknown connection class")
	// ErrInvalidPolicy is returned when a policy fails validation.
	ErrInvalidPolicy = errors.New("compensation: invalid policy")
	// ErrEmptyImage is returned when an extraction request carries no payload.
	ErrEmptyImage = errors.New("compensation: empty image")
	// ErrImageTooLarge is returned when an extraction payload exceeds the upload limit.
	ErrImageTooLarge = errors.New("compensation: image too large")
	// ErrExtractionFailed wraps any failure of the field extraction collaborator.
	ErrExtractionFailed = errors.New("compensation: extraction failed")
	// ErrExtractorUnavailable is returned when no extraction backend is configured.
	ErrExtractorUnavailable = errors.New("compensation: extractor unavailable")
)
