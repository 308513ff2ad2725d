package document

import (
	"errors"
	"fmt"
)

// Error definitions
var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptyFile         = errors.New("file is empty")
)

// UnsupportedFormatError is returned when a declared media type matches none of
// the known document formats.
type UnsupportedFormatError struct {
	MediaType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MediaType)
}

// Is lets callers match with errors.Is(err, ErrUnsupportedFormat).
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ExtractionError wraps a failure to read text out of a supported document.
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
