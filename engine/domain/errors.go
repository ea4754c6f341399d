package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for dependency and input failures. Unavailability sentinels
// are always recoverable: the matching engine degrades to the next tier and
// callers render them as empty results, never as a request failure.
var (
	ErrNotFound               = errors.New("not found")
	ErrEmptyInput             = errors.New("empty input")
	ErrExtractionUnavailable  = errors.New("no text extractor available")
	ErrEmbeddingUnavailable   = errors.New("embedding model unavailable")
	ErrIndexUnavailable       = errors.New("vector index unavailable")
	ErrTaxonomyUnavailable    = errors.New("taxonomy service unavailable")
	ErrLLMUnavailable         = errors.New("completion service unavailable")
)

// NotFoundError identifies the missing entity so callers can render a 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a NotFoundError for the given entity kind and id.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// Unavailable reports whether err is one of the unavailability sentinels.
func Unavailable(err error) bool {
	return errors.Is(err, ErrExtractionUnavailable) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrIndexUnavailable) ||
		errors.Is(err, ErrTaxonomyUnavailable) ||
		errors.Is(err, ErrLLMUnavailable)
}
