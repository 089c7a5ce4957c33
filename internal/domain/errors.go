package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("project not found")
	ErrProjectDisabled = errors.New("project is disabled")
	ErrDuplicatePath   = errors.New("a project with this directory path already exists")
	ErrInvalidProject  = errors.New("invalid project")
)

// ScanError reports a directory that could not be scanned at all
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("failed to scan directory %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ImportError reports a rejected JSON import payload
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import: %s: %v", e.Reason, e.Err)
	}
	return "invalid import: " + e.Reason
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
