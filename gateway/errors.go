package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by BuildTransaction when the contract session
	// is not established.
	ErrNotReady = errors.New("gateway: contract session not ready")

	// ErrClosed is returned when the gateway connection has been closed.
	ErrClosed = errors.New("gateway: connection closed")
)

// ErrTxTooLarge reports a submission rejected because its encoded size or
// weight exceeds a per-transaction or per-block ceiling. The batch engine
// reacts by splitting the batch.
type ErrTxTooLarge struct {
	Detail string
}

func (e *ErrTxTooLarge) Error() string {
	if e.Detail == "" {
		return "transaction exhausts block resources"
	}
	return "transaction exhausts block resources: " + e.Detail
}

// IsResourceExhausted reports whether err is a resource-exhaustion rejection.
func IsResourceExhausted(err error) bool {
	var tooLarge *ErrTxTooLarge
	return errors.As(err, &tooLarge)
}

// DispatchError is a transaction-level failure reported by the ledger after
// the transaction was included. It is not retried.
type DispatchError struct {
	Module string
	Reason string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch error in %s: %s", e.Module, e.Reason)
}
