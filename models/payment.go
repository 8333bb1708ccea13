package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment types and methods.
const (
	PaymentTypeIncome  = "income"
	PaymentTypeExpense = "expense"

	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodOthers       = "others"
)

// Payment records money received from or sent to a contact. Amount is in
// minor currency units and is only editable while the payment has zero
// allocations, since allocations reference a specific amount. The
// unallocated portion is derived from allocation sums at read time.
type Payment struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	ContactId   uint      `json:"contact_id" gorm:"not null;index:idx_payments_contact_type,priority:1"`
	Type        string    `json:"type" gorm:"not null;index;index:idx_payments_contact_type,priority:2"`
	Amount      int64     `json:"amount" gorm:"not null"`
	Method      string    `json:"method" gorm:"not null"`
	PaymentDate time.Time `json:"payment_date" gorm:"not null;index"`
	Notes       string    `json:"notes"`

	MediaRef datatypes.JSON `json:"media_ref" gorm:"type:jsonb"`

	Allocations []Allocation `json:"-" gorm:"foreignKey:PaymentId;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}
