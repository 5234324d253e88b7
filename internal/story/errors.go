package story

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUpstreamText     = errors.New("text generation failed")
	ErrImageUnavailable = errors.New("all image providers failed")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UpstreamText wraps cause so that errors.Is matches both ErrUpstreamText and cause.
func UpstreamText(cause error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamText, cause)
}
