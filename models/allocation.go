package models

import "time"

// Allocation records that part of a payment's amount settles part of an
// invoice's amount. Rows are created and replaced only through the
// allocation engine, never directly by a handler; both parents cascade
// their deletes here.
type Allocation struct {
	Id        uint  `json:"id" gorm:"primaryKey"`
	PaymentId uint  `json:"payment_id" gorm:"not null;index"`
	InvoiceId uint  `json:"invoice_id" gorm:"not null;index"`
	Amount    int64 `json:"amount" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}
