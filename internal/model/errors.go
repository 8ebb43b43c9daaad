package model

import "errors"

// Error kinds surfaced by pool reads, price feeds, and configuration.
// Call sites wrap both the kind and the underlying cause, e.g.
// fmt.Errorf("get slot0 %s: %w: %w", poolID, ErrTransport, err).
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDecode        = errors.New("decode error")
	ErrPoolNotFound  = errors.New("pool not found")
	ErrTransport     = errors.New("transport error")
)

// IsRetryable reports whether err is a transport failure. Decode, configuration
// and not-found errors are deterministic and never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDecode) || errors.Is(err, ErrPoolNotFound) {
		return false
	}
	return errors.Is(err, ErrTransport)
}
