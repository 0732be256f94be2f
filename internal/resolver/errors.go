package resolver

import (
	"errors"
	"fmt"
)

// Error taxonomy for resolution failures. Callers match with errors.Is.
var (
	// ErrUnresolvable means no adapter matches the reference: an
	// unrecognized URL, or an unconfigured service id. Never retried.
	ErrUnresolvable = errors.New("unresolvable reference")

	// ErrUnsupportedMime means the record exists but its content type is
	// not playable. The record is discarded, never returned.
	ErrUnsupportedMime = errors.New("unsupported mime type")

	// ErrQuotaExceeded means the provider's usage limit was hit. The
	// resolver degrades to stale cached data when any usable fields are
	// cached; otherwise the error surfaces.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
)

// ProviderError wraps an adapter failure with the service and operation
// that produced it. Unwrap exposes the cause, so errors.Is(err,
// ErrQuotaExceeded) works through the wrapper.
type ProviderError struct {
	Service string
	Op      string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
