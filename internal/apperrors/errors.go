// Package apperrors provides sentinel and custom error types shared by the
// repository, service and handler layers.
package apperrors

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports that a requested resource does not exist (or is not
// visible to the caller).
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is reports whether target is a *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = &ValidationError{}

// ValidationError reports client input that failed a business rule.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is reports whether target is a *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrLimitExceeded matches any *LimitExceededError via errors.Is.
var ErrLimitExceeded = &LimitExceededError{}

// LimitExceededError reports an operation rejected by a configured limit
// (upload size, request rate).
type LimitExceededError struct {
	Message string
}

// NewLimitExceededError creates a LimitExceededError with a custom message.
func NewLimitExceededError(message string) *LimitExceededError {
	return &LimitExceededError{Message: message}
}

func (e *LimitExceededError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "limit exceeded"
}

// Is reports whether target is a *LimitExceededError.
func (e *LimitExceededError) Is(target error) bool {
	_, ok := target.(*LimitExceededError)

	return ok
}

// ErrConflict matches any *ConflictError via errors.Is.
var ErrConflict = &ConflictError{}

// ConflictError reports a state conflict, e.g. moderating a product that is
// no longer pending.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is reports whether target is a *ConflictError.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}

// ErrForbidden matches any *ForbiddenError via errors.Is.
var ErrForbidden = &ForbiddenError{}

// ForbiddenError reports an authenticated caller acting outside its role.
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a ForbiddenError with a custom message.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "forbidden"
}

// Is reports whether target is a *ForbiddenError.
func (e *ForbiddenError) Is(target error) bool {
	_, ok := target.(*ForbiddenError)

	return ok
}
