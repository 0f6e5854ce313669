package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrMemoryLimit indicates the analysis cache outgrew its memory budget.
	ErrMemoryLimit = errors.New("health: cache memory limit exceeded")

	// ErrCheckTimeout indicates a health check did not answer within the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
