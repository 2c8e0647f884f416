package normalizer

import (
	"errors"
	"fmt"
)

// User-facing messages for the failure classes.
const (
	MsgInvalidImage     = "file is not a valid image"
	MsgBoundaryNotFound = "could not detect the page, please retake the photo"
	MsgWriteFailed      = "could not save the normalized page"
	MsgInternal         = "page normalization failed"
)

// LoadError reports an input that is absent, empty or undecodable.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load image: %v", e.Err)
	}
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// BoundaryNotFoundError reports that no page quadrilateral was detected.
type BoundaryNotFoundError struct {
	Path          string
	Width, Height int
}

func (e *BoundaryNotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("no page boundary found in %dx%d image", e.Width, e.Height)
	}
	return fmt.Sprintf("no page boundary found in %s (%dx%d)", e.Path, e.Width, e.Height)
}

// IOError reports a failure writing the normalized output.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// UserMessage returns a short, non-technical description of err.
func UserMessage(err error) string {
	var (
		loadErr  *LoadError
		boundErr *BoundaryNotFoundError
		ioErr    *IOError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &loadErr):
		return MsgInvalidImage
	case errors.As(err, &boundErr):
		return MsgBoundaryNotFound
	case errors.As(err, &ioErr):
		return MsgWriteFailed
	default:
		return MsgInternal
	}
}
