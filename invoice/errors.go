package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that is rejected before any layout or drawing.
	ErrValidation = errors.New("invoice: validation failed")
	// ErrRenderResource marks an optional asset (logo) that could not be used.
	// The engine recovers from it locally.
	ErrRenderResource = errors.New("invoice: render resource unavailable")
	// ErrOutput marks a failure to open or write the output location.
	ErrOutput = errors.New("invoice: output failed")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RenderResourceError wraps a logo read/decode failure.
type RenderResourceError struct {
	Path string
	Err  error
}

func (e *RenderResourceError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
}

func (e *RenderResourceError) Is(target error) bool { return target == ErrRenderResource }

func (e *RenderResourceError) Unwrap() error { return e.Err }

// OutputError wraps a failure of the output sink.
type OutputError struct {
	Location string
	Err      error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Location, e.Err)
}

func (e *OutputError) Is(target error) bool { return target == ErrOutput }

func (e *OutputError) Unwrap() error { return e.Err }
