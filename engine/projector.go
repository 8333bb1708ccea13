package engine

import "pembukuan-backend/models"

// Invoice settlement status, derived from allocation sums at read time.
// Never stored: a stored status column would drift from the actual
// allocations after edits and deletes.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

// AllocatedTotal sums the amounts of a set of allocation rows.
func AllocatedTotal(allocs []models.Allocation) int64 {
	var total int64
	for _, a := range allocs {
		total += a.Amount
	}
	return total
}

// InvoiceRemaining is the invoice amount minus the given allocations.
func InvoiceRemaining(inv *models.Invoice, allocs []models.Allocation) int64 {
	return inv.Amount - AllocatedTotal(allocs)
}

// StatusOf projects a remaining balance onto the two-state invoice status.
// An invoice oscillates between the two as allocations come and go.
func StatusOf(remaining int64) string {
	if remaining == 0 {
		return StatusPaid
	}
	return StatusPending
}

// PaymentUnallocated is the payment amount minus the given allocations.
// Under the engine's invariants this never goes negative.
func PaymentUnallocated(p *models.Payment, allocs []models.Allocation) int64 {
	return p.Amount - AllocatedTotal(allocs)
}
