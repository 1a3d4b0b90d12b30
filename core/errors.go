package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers wrap them with fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	ErrStorage           = errors.New("storage error")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTimeout           = errors.New("timed out")
	ErrCaptureFailure    = errors.New("capture failure")
	ErrConflict          = errors.New("conflict")
)

// StorageError wraps an I/O failure of the mapping store as ErrStorage.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// CaptureError reports a photo that cannot be used for a punch.
func CaptureError(issues ...string) error {
	if len(issues) == 0 {
		return fmt.Errorf("%w: no photo captured", ErrCaptureFailure)
	}
	return fmt.Errorf("%w: %s", ErrCaptureFailure, strings.Join(issues, ", "))
}

// Notice converts err into the short message shown to the person who started the action.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Employee not found"
	case errors.Is(err, ErrInvalidCredential):
		return "Invalid PIN"
	case errors.Is(err, ErrTimeout):
		return "Could not get location. Please try again."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission not granted"
	case errors.Is(err, ErrCaptureFailure):
		return "Photo capture failed. Please try again."
	case errors.Is(err, ErrConflict):
		return "Phone number already in use"
	case errors.Is(err, ErrStorage):
		return "Failed to save data. Please try again."
	}
	return "Something went wrong. Please try again."
}
