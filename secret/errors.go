package secret

import "errors"

var (
	// ErrInvalidRegistration indicates an empty provider name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrDuplicateProvider indicates a provider name is already registered.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrUnknownProvider indicates a secretref names an unregistered provider.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrInvalidRef indicates a malformed or unsafe reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrNotFound indicates the provider has no value for the reference.
	ErrNotFound = errors.New("secret: not found")

	// ErrEmptySecret indicates a strict resolver received an empty value.
	ErrEmptySecret = errors.New("secret: provider returned empty value")

	// ErrMissingEnv indicates ${VAR} referenced an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")
)
