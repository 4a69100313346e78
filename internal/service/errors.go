package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource conflict")
	ErrValidation = errors.New("validation failed")
	ErrUpstream   = errors.New("upstream failure")
)

var (
	ErrAnnouncementNotFound = fmt.Errorf("announcement: %w", ErrNotFound)
	ErrEventNotFound        = fmt.Errorf("event: %w", ErrNotFound)
	ErrCommentNotFound      = fmt.Errorf("comment: %w", ErrNotFound)
	ErrReactionNotFound     = fmt.Errorf("reaction: %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user: %w", ErrNotFound)

	ErrEmailTaken        = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDuplicateReaction = fmt.Errorf("reaction already exists: %w", ErrConflict)
	ErrUserOwnsContent   = fmt.Errorf("user still authors announcements or events: %w", ErrConflict)
)

// ValidationError lists the request fields that were absent or malformed.
type ValidationError struct {
	MissingFields []string `json:"missing_fields,omitempty"`
	InvalidFields []string `json:"invalid_fields,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 3)
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.InvalidFields, ", "))
	}
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) empty() bool {
	return len(e.MissingFields) == 0 && len(e.InvalidFields) == 0 && e.Reason == ""
}

func (e *ValidationError) missing(field string) {
	e.MissingFields = append(e.MissingFields, field)
}

func (e *ValidationError) invalid(field string) {
	e.InvalidFields = append(e.InvalidFields, field)
}

func (e *ValidationError) orNil() error {
	if e == nil || e.empty() {
		return nil
	}
	sort.Strings(e.MissingFields)
	sort.Strings(e.InvalidFields)
	return e
}

func invalidInput(reason string, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, InvalidFields: fields}
}

// UpstreamError wraps a persistence failure the caller may retry.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

// mapRepoError converts repository sentinels into service errors, wrapping
// anything unknown as an upstream failure.
func mapRepoError(op string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		if notFound != nil {
			return notFound
		}
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return upstream(op, err)
	}
}
