package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrUnavailable  = errors.New("service unavailable")

	// ErrCatalog classifies errors raised by catalog rules. Listener errors
	// wrapping it are re-raised to the caller; all others are only logged.
	ErrCatalog = errors.New("catalog")
)

// Specific errors.
var (
	ErrValidation            = fmt.Errorf("validation: %w", ErrCatalog)
	ErrStructuralIntegrity   = fmt.Errorf("structural integrity: %w", ErrCatalog)
	ErrReferentialIntegrity  = fmt.Errorf("referential integrity: %w", ErrCatalog)
	ErrAmbiguous             = fmt.Errorf("more than one match: %w", ErrCatalog)
	ErrUnsupportedSort       = fmt.Errorf("sort: %w", ErrUnsupported)
	ErrReadOnly              = fmt.Errorf("read-only view: %w", ErrUnsupported)
	ErrEntityNotFound        = fmt.Errorf("catalog entity: %w", ErrNotFound)
	ErrNotReady              = fmt.Errorf("catalog not loaded: %w", ErrUnavailable)
	ErrStorageUnavailable    = fmt.Errorf("storage: %w", ErrUnavailable)
	ErrUnsupportedConnection = fmt.Errorf("connection: %w", ErrUnsupported)
)

// ValidationError describes a rejected field value on add or save.
type ValidationError struct {
	Kind       Kind   // Entity kind
	Field      string // Field that failed validation
	Value      any    // The invalid value
	Constraint string // The constraint that was violated
	Message    string // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("invalid %s %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %s: %s (value: %v, constraint: %s)",
		e.Kind, e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error types.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, ErrInvalidInput}
}

// Invalid returns a ValidationError for kind and field.
func Invalid(kind Kind, field string, value any, constraint, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:       kind,
		Field:      field,
		Value:      value,
		Constraint: constraint,
		Message:    fmt.Sprintf(format, args...),
	}
}

// IntegrityError is raised when an operation would break the object graph:
// ErrStructuralIntegrity on add/save, ErrReferentialIntegrity on remove.
type IntegrityError struct {
	Kind    Kind   // Entity kind
	Name    string // Entity name
	Message string // Human-readable message
	Err     error  // ErrStructuralIntegrity or ErrReferentialIntegrity
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Message)
}

// Unwrap returns the underlying error.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Structural returns a structural IntegrityError.
func Structural(kind Kind, name, format string, args ...any) *IntegrityError {
	return &IntegrityError{Kind: kind, Name: name, Message: fmt.Sprintf(format, args...), Err: ErrStructuralIntegrity}
}

// Referenced returns a referential IntegrityError.
func Referenced(kind Kind, name, format string, args ...any) *IntegrityError {
	return &IntegrityError{Kind: kind, Name: name, Message: fmt.Sprintf(format, args...), Err: ErrReferentialIntegrity}
}

// ValidationResult collects the failures reported by extension validators.
type ValidationResult struct {
	Errors []error
}

// Add records err unless it is nil.
func (r *ValidationResult) Add(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// Valid reports whether no validator failed.
func (r *ValidationResult) Valid() bool {
	return r == nil || len(r.Errors) == 0
}

// Err returns nil for a valid result, otherwise a ValidationError aggregating all failures.
func (r *ValidationResult) Err(kind Kind) error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return &ValidationError{
		Kind:    kind,
		Field:   "*",
		Message: strings.Join(msgs, "; "),
	}
}

// ResolutionWarning reports a reference that could not be resolved yet.
// It is logged, never returned.
type ResolutionWarning struct {
	Owner  Kind
	ID     string
	Field  string
	Target Kind
	Ref    string
}

// String implements fmt.Stringer.
func (w ResolutionWarning) String() string {
	return fmt.Sprintf("%s %s: %s reference %q to %s not resolved", w.Owner, w.ID, w.Field, w.Ref, w.Target)
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (read, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
