package codec

import (
	"errors"
	"fmt"
)

var (
	ErrEncoding = errors.New("encoding error")
	ErrDecoding = errors.New("decoding error")
)

// EncodingError reports a payload that could not be turned into an opaque
// string. It matches ErrEncoding with errors.Is.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("failed to encode payload: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// DecodingError reports malformed, tampered or undecryptable input.
// It matches ErrDecoding with errors.Is.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string { return fmt.Sprintf("failed to decode payload: %v", e.Err) }
func (e *DecodingError) Unwrap() error { return e.Err }
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}
