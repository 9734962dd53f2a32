package querycache

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Error categories used by query and mutation implementations.
var (
	CategoryService        = goerrors.CategoryExternal
	CategoryNotFound       = goerrors.CategoryNotFound
	CategoryValidation     = goerrors.CategoryValidation
	CategoryPartialFailure = goerrors.CategoryExternal.Extend("partial")
	CategoryInternal       = goerrors.CategoryInternal
)

// Text codes attached to internal faults.
const (
	TextCodeServiceFailure       = "SERVICE_FAILURE"
	TextCodeNotFound             = "NOT_FOUND"
	TextCodeInvalidArgument      = "INVALID_ARGUMENT"
	TextCodePartialFailure       = "PARTIAL_FAILURE"
	TextCodeUnexpected           = "UNEXPECTED_ERROR"
	TextCodePanic                = "UNEXPECTED_PANIC"
	TextCodeDependencyCycle      = "DEPENDENCY_CYCLE"
	TextCodeUndeclaredDependency = "UNDECLARED_DEPENDENCY"
	TextCodeUnknownEndpoint      = "UNKNOWN_ENDPOINT"
	TextCodeDuplicateEndpoint    = "DUPLICATE_ENDPOINT"
	TextCodeResultType           = "RESULT_TYPE_MISMATCH"
	TextCodeCacheClosed          = "CACHE_CLOSED"
)

// NewServiceError reports a failure returned by an external service call.
func NewServiceError(message string, source error) *goerrors.Error {
	err := goerrors.New(message, CategoryService).WithTextCode(TextCodeServiceFailure)
	err.Source = source
	return err
}

// NewNotFoundError reports a referenced entity or network that does not exist.
func NewNotFoundError(message string) *goerrors.Error {
	return goerrors.New(message, CategoryNotFound).WithTextCode(TextCodeNotFound)
}

// NewValidationError reports malformed arguments rejected before any call.
func NewValidationError(message string) *goerrors.Error {
	return goerrors.New(message, CategoryValidation).WithTextCode(TextCodeInvalidArgument)
}

// NewPartialFailure reports the failure of one fan-out shard.
func NewPartialFailure(shard int, source error) *goerrors.Error {
	err := goerrors.New(fmt.Sprintf("shard %d failed: %s", shard, Message(source)), CategoryPartialFailure).
		WithTextCode(TextCodePartialFailure).
		WithMetadata(map[string]any{"shard": shard})
	err.Source = source
	return err
}

func newInternalError(message, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, CategoryInternal).WithTextCode(textCode)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// asErrorInfo keeps taxonomy errors untouched so dependent queries surface the
// identical value, and wraps anything else as an internal fault.
func asErrorInfo(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, CategoryInternal, "unexpected query error").WithTextCode(TextCodeUnexpected)
}

// IsServiceError reports whether err is an external service failure.
func IsServiceError(err error) bool {
	return goerrors.IsCategory(err, CategoryService)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return goerrors.IsValidation(err)
}

// IsPartialFailure reports whether err came from a failed fan-out shard.
func IsPartialFailure(err error) bool {
	return goerrors.IsCategory(err, CategoryPartialFailure)
}

// IsInternal reports whether err is an internal fault such as a recovered
// panic or a dependency cycle.
func IsInternal(err error) bool {
	return goerrors.IsInternal(err)
}

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, code string) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == code
}

// Message returns the human readable part of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
