// Package errors provides the typed, coded errors used across the chainstate
// services and stores.
package errors

import (
	"context"
	"errors"
)

// IsRetryableError determines if an error is transient and the operation should
// be retried. Consensus failures are deterministic and never retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check if context was cancelled - not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE:
			return true
		case ERR_TX_INVALID,
			ERR_TX_CONFLICTING,
			ERR_BLOCK_INVALID:
			return false
		}
	}

	return false
}

// IsConsensusError reports whether an error means the input itself is invalid
// under consensus or policy rules. Such errors are final: the same input will
// always fail, so it must be rejected and never re-validated.
func IsConsensusError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_TX_INVALID,
			ERR_TX_CONFLICTING,
			ERR_TX_MISSING_PARENT,
			ERR_TX_POLICY,
			ERR_TX_COINBASE_IMMATURE,
			ERR_TX_LOCKTIME,
			ERR_BLOCK_INVALID,
			ERR_UTXO_SPENT:
			return true
		}
	}

	return false
}

// IsResourceError reports whether an error is a resource-exhaustion condition
// that degrades gracefully (eviction, fallback allocation) rather than failing
// the node.
func IsResourceError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_MEMPOOL_FULL,
			ERR_MEMORY_BUDGET,
			ERR_THRESHOLD_EXCEEDED:
			return true
		}
	}

	return false
}

// IsStorageError reports whether an error came from the backing store. A
// storage failure during flush is fatal to the validation attempt in progress.
func IsStorageError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_STORAGE_ERROR,
			ERR_STORAGE_UNAVAILABLE,
			ERR_STORAGE_NOT_STARTED:
			return true
		}
	}

	return false
}

// IsContextError determines if an error is related to context cancellation or deadline.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	// Check standard context errors
	if err == context.Canceled || err == context.DeadlineExceeded {
		return true
	}

	// Check for wrapped context errors
	var tErr *Error
	if As(err, &tErr) {
		if tErr.Code() == ERR_CONTEXT_CANCELED || tErr.Code() == ERR_CONTEXT {
			return true
		}
	}

	// Check if the wrapped error is a context error
	if Is(err, context.Canceled) || Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// GetErrorCategory returns a string representing the category of the error.
// This is useful for logging and metrics labels.
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	var tErr *Error
	if As(err, &tErr) {
		// Group by error code ranges
		code := tErr.Code()
		switch {
		case code >= 10 && code <= 19:
			return "block"
		case code >= 20 && code <= 39:
			return "transaction"
		case code >= 40 && code <= 49:
			return "mempool"
		case code >= 50 && code <= 59:
			return "service"
		case code >= 60 && code <= 69:
			return "storage"
		case code >= 70 && code <= 79:
			return "utxo"
		case code >= 80 && code <= 89:
			return "kafka"
		}
	}

	return "unknown"
}
