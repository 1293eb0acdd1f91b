package docstore

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
)

type ValidationError struct {
	Collection string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid document in %s: %s", e.Collection, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type StorageError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
