package a2a

import (
	"errors"
	"fmt"

	"github.com/partsgrid/agents/pkg/model"
)

// TransportError classifies a failed A2A exchange. The classes are mutually
// exclusive and total:
//
//   - SUPPLIER_UNREACHABLE: connection-level failure, or a 5xx arriving in
//     place of a response — the supplier never answered the call.
//   - SUPPLIER_TIMEOUT: no complete response within the configured deadline.
//   - SUPPLIER_INVALID_RESPONSE: a response arrived but violates the wire
//     contract, structurally or semantically.
type TransportError struct {
	Outcome model.Outcome
	Reason  string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Outcome, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Outcome, e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }

func unreachable(reason string, err error) *TransportError {
	return &TransportError{Outcome: model.OutcomeSupplierUnreachable, Reason: reason, Err: err}
}

func timeout(reason string, err error) *TransportError {
	return &TransportError{Outcome: model.OutcomeSupplierTimeout, Reason: reason, Err: err}
}

func invalid(reason string) *TransportError {
	return &TransportError{Outcome: model.OutcomeSupplierInvalidResponse, Reason: reason}
}

// AsTransportError extracts the classification from err, if any.
func AsTransportError(err error) (*TransportError, bool) {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr, true
	}
	return nil, false
}

// IsTransient reports whether err is a retryable transport failure.
// Invalid responses signal a contract violation and are never retried.
func IsTransient(err error) bool {
	if terr, ok := AsTransportError(err); ok {
		return terr.Outcome.Transient()
	}
	return false
}
