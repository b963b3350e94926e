// internal/decode/errors.go
package decode

import (
	"errors"
	"fmt"
)

// Decode errors mean the device response no longer matches the layout.
// They are not retried.
var (
	ErrUnknownKind    = errors.New("decode: unknown value kind")
	ErrWordCount      = errors.New("decode: word count does not match value kind")
	ErrShortBuffer    = errors.New("decode: buffer shorter than module size")
	ErrFieldBounds    = errors.New("decode: field exceeds buffer")
	ErrLengthMismatch = errors.New("decode: response length does not match module count")
)

// FieldError ties a decode failure to the layout field being decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
