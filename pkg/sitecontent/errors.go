package sitecontent

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a record with the same id already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrObjectNotFound indicates a stored object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidInput indicates a request failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSlot indicates an asset slot the kind does not have
	ErrUnknownSlot = errors.New("unknown asset slot")
)

// RecordError represents an error related to a content record operation
type RecordError struct {
	Kind AssetKind
	ID   string
	Op   string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s failed for %s: %v", e.Kind.Singular(), e.Op, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to a blob storage operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid user input. Message is safe to show next
// to the offending form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
