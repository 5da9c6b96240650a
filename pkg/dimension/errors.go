package dimension

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrContentNotFound indicates no dimension matches the requested attributes
	ErrContentNotFound = errors.New("content not found")

	// ErrNotMerged indicates resolution was attempted on a raw dimension row
	ErrNotMerged = errors.New("dimension content is not merged")

	// ErrMissingLocale indicates merged content without a locale
	ErrMissingLocale = errors.New("dimension content has no locale")

	// ErrResourceLoaderNotFound indicates a placeholder references an unregistered loader
	ErrResourceLoaderNotFound = errors.New("resource loader not found")
)

// ContentError represents an error related to a content entity
type ContentError struct {
	ResourceKey string
	ResourceID  string
	Op          string
	Err         error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for %s %s: %v", e.Op, e.ResourceKey, e.ResourceID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// LoaderError represents a failure of a resource loader
type LoaderError struct {
	LoaderKey string
	IDs       []string
	Err       error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("resource loader %s failed for %d ids: %v", e.LoaderKey, len(e.IDs), e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err signals missing content.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContentNotFound)
}
