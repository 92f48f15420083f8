package remote

import "errors"

var (
	// ErrTransient marks failures worth retrying: network errors, 5xx, open breaker.
	ErrTransient = errors.New("transient remote failure")
	// ErrRejected marks requests the storefront API refused (4xx).
	ErrRejected = errors.New("request rejected by remote")
)

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
