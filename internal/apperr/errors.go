// Package apperr defines the structured error kinds surfaced by the core.
// Every error carries enough context (entity ids, conflicting field values)
// for a client to self-correct without re-querying.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError is returned when an entity id is unknown.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind and id.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// FolderDepartmentMismatchError is a write-time invariant violation: an
// explicit department was given that differs from the assigned folder's
// department, and the caller did not request folder-derived override.
type FolderDepartmentMismatchError struct {
	FolderID           string
	FolderDepartmentID string
	DepartmentID       string
}

func (e *FolderDepartmentMismatchError) Error() string {
	return fmt.Sprintf("folder %s belongs to department %s, which conflicts with explicit department %s",
		e.FolderID, e.FolderDepartmentID, e.DepartmentID)
}

// IsFolderDepartmentMismatch reports whether err is (or wraps) a
// FolderDepartmentMismatchError.
func IsFolderDepartmentMismatch(err error) bool {
	var e *FolderDepartmentMismatchError
	return errors.As(err, &e)
}

// InvalidFilterCombinationError is a search-time invariant violation: the
// folder and department filters name disagreeing entities.
type InvalidFilterCombinationError struct {
	FolderID           string
	FolderDepartmentID string
	DepartmentID       string
}

func (e *InvalidFilterCombinationError) Error() string {
	return fmt.Sprintf("folder filter %s implies department %s, which conflicts with department filter %s",
		e.FolderID, e.FolderDepartmentID, e.DepartmentID)
}

// IsInvalidFilterCombination reports whether err is (or wraps) an
// InvalidFilterCombinationError.
func IsInvalidFilterCombination(err error) bool {
	var e *InvalidFilterCombinationError
	return errors.As(err, &e)
}

// HasDependentsError blocks a delete while dependent entities still exist.
type HasDependentsError struct {
	Entity     string
	ID         string
	Dependents []string
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("%s %s still has dependents: %s", e.Entity, e.ID, strings.Join(e.Dependents, ", "))
}

// IsHasDependents reports whether err is (or wraps) a HasDependentsError.
func IsHasDependents(err error) bool {
	var e *HasDependentsError
	return errors.As(err, &e)
}

// BackendTimeoutError signals that an external call exceeded its bound.
type BackendTimeoutError struct {
	Backend string
	Err     error
}

func (e *BackendTimeoutError) Error() string {
	return fmt.Sprintf("%s backend timed out: %v", e.Backend, e.Err)
}

func (e *BackendTimeoutError) Unwrap() error { return e.Err }

// IsBackendTimeout reports whether err is (or wraps) a BackendTimeoutError.
func IsBackendTimeout(err error) bool {
	var e *BackendTimeoutError
	return errors.As(err, &e)
}

// SearchUnavailableError is returned only when both search backends failed.
type SearchUnavailableError struct {
	IndexErr error
	StoreErr error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("search unavailable: index: %v; store: %v", e.IndexErr, e.StoreErr)
}

// IsSearchUnavailable reports whether err is (or wraps) a SearchUnavailableError.
func IsSearchUnavailable(err error) bool {
	var e *SearchUnavailableError
	return errors.As(err, &e)
}

// ValidationError describes malformed input, such as a non-existent tag id.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the given field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
