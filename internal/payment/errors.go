package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrReconciliationSkipped marks a callback that was deliberately
	// ignored: bad secret, malformed or unknown payment id.
	ErrReconciliationSkipped = errors.New("reconciliation skipped")

	ErrUnsupportedCoin = errors.New("unsupported coin")
	ErrAmountTooSmall  = errors.New("amount too small to buy any credits")
)

// ExternalServiceError wraps a non-success answer from the crypto processor.
type ExternalServiceError struct {
	StatusCode int
	Message    string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("crypto processor returned %d: %s", e.StatusCode, e.Message)
}
