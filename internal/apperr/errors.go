// Package apperr defines the error taxonomy shared by every layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")

	// ErrNotOpen is returned by gateway calls made before Open succeeded.
	ErrNotOpen = errors.New("storage not open")

	ErrLastWorkspace      = errors.New("cannot delete the last workspace")
	ErrFolderTypeMismatch = errors.New("folder type mismatch")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InitError reports that the storage engine could not be opened or migrated.
// It is fatal: callers must stop instead of continuing with a partial handle.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("storage init: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// StorageError reports an operation rejected by the storage engine.
type StorageError struct {
	Op    string
	Store string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Store, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is (or wraps) a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
