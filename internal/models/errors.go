package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyContent means an item has no usable text on any field.
	ErrEmptyContent = errors.New("empty content")
	// ErrModelUnavailable means a model backend failed or is not configured.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrTimeout means an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrUnsortable means an item has no timestamp and cannot be ordered.
	ErrUnsortable = errors.New("item has no timestamp")
	// ErrUnsupported means a backend does not offer the requested operation.
	ErrUnsupported = errors.New("operation not supported by backend")
)

// EmptyContentError names the item with no usable text.
type EmptyContentError struct {
	ItemID string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("item %q: %s", e.ItemID, ErrEmptyContent)
}

func (e *EmptyContentError) Unwrap() error { return ErrEmptyContent }

// ModelUnavailableError wraps a backend failure.
type ModelUnavailableError struct {
	Model string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// TimeoutError records which external call ran out of time.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// MalformedRecordError describes one rejected input row.
type MalformedRecordError struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("line %d (id %s): field %s: %s", e.Line, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("line %d: field %s: %s", e.Line, e.Field, e.Reason)
}
