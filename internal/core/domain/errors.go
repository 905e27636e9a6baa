package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is the only failure a Classify caller ever sees:
	// the document text is empty after normalization.
	ErrEmptyInput = errors.New("empty input")

	// Tier-local failures. Each one advances the cascade to the next
	// tier and is never surfaced to the caller.
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInferenceTimeout = errors.New("inference timeout")
	ErrMalformedOutput  = errors.New("malformed model output")

	// ErrValidatorUnavailable degrades validation to a neutral
	// entailment score instead of failing the request.
	ErrValidatorUnavailable = errors.New("validator unavailable")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// TierErrorKind maps an absorbed tier error onto the audit vocabulary.
func TierErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInferenceTimeout):
		return "inference_timeout"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	default:
		return "unknown"
	}
}
