package engine

import "errors"

// Violation is a typed validation failure for a draft allocation set. It is
// detected before any write and is always recoverable: the caller keeps its
// in-memory draft, corrects it and validates again.
type Violation string

const (
	// ViolationDuplicateInvoice: two rows of the same draft set reference
	// the same invoice.
	ViolationDuplicateInvoice Violation = "duplicate_invoice"
	// ViolationInvoiceMissing: a row has no invoice selected.
	ViolationInvoiceMissing Violation = "invoice_missing"
	// ViolationNonPositiveAmount: a row's amount is zero or negative.
	ViolationNonPositiveAmount Violation = "non_positive_amount"
	// ViolationExceedsInvoiceRemaining: a row allocates more than the
	// invoice's remaining balance.
	ViolationExceedsInvoiceRemaining Violation = "exceeds_invoice_remaining"
	// ViolationExceedsPaymentAmount: the set as a whole allocates more than
	// the payment has left to give.
	ViolationExceedsPaymentAmount Violation = "exceeds_payment_amount"
)

func (v Violation) Error() string { return string(v) }

// AsViolation unwraps a Violation from err, if one is there.
func AsViolation(err error) (Violation, bool) {
	var v Violation
	if errors.As(err, &v) {
		return v, true
	}
	return "", false
}

// Engine-level failures that are not draft violations.
var (
	// ErrPaymentNotFound: the referenced payment no longer exists (deleted
	// out from under an in-progress edit).
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvoiceNotFound: a referenced invoice no longer exists.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrAllocationNotFound: the allocation to delete does not exist.
	ErrAllocationNotFound = errors.New("allocation not found")
	// ErrIncompatibleInvoice: the invoice belongs to another contact or its
	// type does not match the payment's settlement direction.
	ErrIncompatibleInvoice = errors.New("invoice incompatible with payment")
	// ErrAllocationInFlight: another mutation for the same payment has not
	// finished yet; the caller may retry.
	ErrAllocationInFlight = errors.New("allocation operation already in flight for payment")
)
