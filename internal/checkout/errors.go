package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition    = errors.New("illegal transition of checkout state")
	ErrSessionClosed        = errors.New("checkout session is closed")
	ErrAlreadySubmitted     = errors.New("order was already submitted")
	ErrSubmitInFlight       = errors.New("a submission is already in flight")
	ErrReceiptRequired      = errors.New("transfer orders require a payment receipt")
	ErrResolutionSuperseded = errors.New("delivery cost resolution superseded by a newer request")
	ErrAddressRequired      = errors.New("address must be set before resolving delivery cost")
	ErrNoPendingAutofill    = errors.New("no autofill prompt is pending")
)

// ValidationError carries the per-field messages of a failed submit attempt.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order form is invalid (%d field errors)", len(e.Errors))
}
