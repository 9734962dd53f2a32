package wallet

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-query/querycache"
)

// serviceFailure converts a boundary error into the query error taxonomy.
// Errors that already carry a category pass through untouched.
func serviceFailure(message string, err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	var se *ServiceError
	if goerrors.As(err, &se) {
		return querycache.NewServiceError(message, err).
			WithMetadata(map[string]any{"code": se.Code, "reason": se.Message})
	}
	return querycache.NewServiceError(message, err)
}

// providerFailure reports a non-zero provider error code. An empty provider
// message falls back to message.
func providerFailure(code ProviderError, providerMessage, message string) error {
	if providerMessage == "" {
		providerMessage = message
	}
	return querycache.NewServiceError(providerMessage, nil).
		WithMetadata(map[string]any{"provider_error": int(code)})
}

func invalidArgument(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, message).WithTextCode(querycache.TextCodeInvalidArgument)
}

func argAs[T any](endpoint string, arg any) (T, error) {
	v, ok := arg.(T)
	if !ok {
		var zero T
		return zero, querycache.NewValidationError(fmt.Sprintf("%s: unexpected argument of type %T", endpoint, arg))
	}
	return v, nil
}
