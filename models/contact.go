package models

import "time"

// Contact categories.
const (
	CategorySupplier = "supplier"
	CategoryClient   = "client"
	CategoryDriver   = "driver"
	CategoryOthers   = "others"
)

type Contact struct {
	Id          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	PhoneNumber *string   `json:"phone_number" gorm:"unique"`
	Category    string    `json:"category" gorm:"not null;index"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`

	// Deleting a contact removes its invoices and payments, which in turn
	// remove their allocations.
	Invoices []Invoice `json:"-" gorm:"foreignKey:ContactId;constraint:OnDelete:CASCADE"`
	Payments []Payment `json:"-" gorm:"foreignKey:ContactId;constraint:OnDelete:CASCADE"`
}
