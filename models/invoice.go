package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invoice types. Sales invoices record money the contact owes the business,
// purchase invoices record money the business owes the contact.
const (
	InvoiceTypeSales    = "sales"
	InvoiceTypePurchase = "purchase"
)

// Invoice is a commercial document establishing an amount owed in one
// direction between the business and a contact. Amount is in minor currency
// units and immutable after creation; edits only touch notes/media/date.
// Remaining balance and paid/pending status are derived from allocations at
// read time and never stored here.
type Invoice struct {
	Id        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"not null;unique"`
	ContactId uint      `json:"contact_id" gorm:"not null;index:idx_invoices_contact_type,priority:1"`
	Type      string    `json:"type" gorm:"not null;index;index:idx_invoices_contact_type,priority:2"`
	Amount    int64     `json:"amount" gorm:"not null"`
	EntryDate time.Time `json:"entry_date" gorm:"not null;index"`
	Notes     string    `json:"notes"`

	// Opaque media reference (URI plus whatever metadata the client stores).
	// Owned externally; the backend never interprets it.
	MediaRef datatypes.JSON `json:"media_ref" gorm:"type:jsonb"`

	Allocations []Allocation `json:"-" gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

// SettledBy maps an invoice type to the payment type that settles it.
func SettledBy(invoiceType string) string {
	if invoiceType == InvoiceTypeSales {
		return PaymentTypeIncome
	}
	return PaymentTypeExpense
}

// SettlesInvoiceType maps a payment type to the invoice type it settles.
func SettlesInvoiceType(paymentType string) string {
	if paymentType == PaymentTypeIncome {
		return InvoiceTypeSales
	}
	return InvoiceTypePurchase
}
