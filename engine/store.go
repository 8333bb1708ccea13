package engine

import (
	"time"

	"pembukuan-backend/models"
)

// DateRange is an inclusive date window. Nil bounds mean open-ended.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range. A nil range matches
// everything.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// AllocationFilter selects allocations by parent. Nil fields are ignored;
// set both to intersect.
type AllocationFilter struct {
	PaymentId *uint
	InvoiceId *uint
}

// ByPayment filters allocations belonging to one payment.
func ByPayment(id uint) AllocationFilter { return AllocationFilter{PaymentId: &id} }

// ByInvoice filters allocations belonging to one invoice.
func ByInvoice(id uint) AllocationFilter { return AllocationFilter{InvoiceId: &id} }

// RecordStore is the persistence contract the engine runs against. The
// production implementation wraps GORM (database.Store); tests run the same
// implementation on an in-memory SQLite database.
//
// Find* methods return nil (not an error) when a single record is absent.
// Mutators must only be called inside Transact; Transact runs fn against a
// store bound to one transaction and commits iff fn returns nil.
type RecordStore interface {
	FindInvoices(contactId uint, invoiceType string, within *DateRange) ([]models.Invoice, error)
	FindInvoiceByID(id uint) (*models.Invoice, error)
	FindPayments(contactId uint, paymentType string, within *DateRange) ([]models.Payment, error)
	FindPaymentByID(id uint) (*models.Payment, error)
	FindAllocations(filter AllocationFilter) ([]models.Allocation, error)

	InsertAllocation(alloc *models.Allocation) error
	DeleteAllocationsByPayment(paymentId uint) error
	DeleteAllocationByID(id uint) (int64, error)

	Transact(fn func(tx RecordStore) error) error
}
