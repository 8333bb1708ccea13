package database

import (
	"errors"

	"pembukuan-backend/engine"
	"pembukuan-backend/models"

	"gorm.io/gorm"
)

// Store implements engine.RecordStore on a *gorm.DB. Transact hands the
// callback a Store bound to the transaction, so the same methods work both
// inside and outside one. Works unchanged against Postgres (production) and
// SQLite (tests).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindInvoices(contactId uint, invoiceType string, within *engine.DateRange) ([]models.Invoice, error) {
	q := s.db.Where("contact_id = ? AND type = ?", contactId, invoiceType)
	if within != nil {
		if within.From != nil {
			q = q.Where("entry_date >= ?", *within.From)
		}
		if within.To != nil {
			q = q.Where("entry_date <= ?", *within.To)
		}
	}
	var invoices []models.Invoice
	if err := q.Order("entry_date ASC, id ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Store) FindInvoiceByID(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (s *Store) FindPayments(contactId uint, paymentType string, within *engine.DateRange) ([]models.Payment, error) {
	q := s.db.Where("contact_id = ? AND type = ?", contactId, paymentType)
	if within != nil {
		if within.From != nil {
			q = q.Where("payment_date >= ?", *within.From)
		}
		if within.To != nil {
			q = q.Where("payment_date <= ?", *within.To)
		}
	}
	var payments []models.Payment
	if err := q.Order("payment_date ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) FindPaymentByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) FindAllocations(filter engine.AllocationFilter) ([]models.Allocation, error) {
	q := s.db.Model(&models.Allocation{})
	if filter.PaymentId != nil {
		q = q.Where("payment_id = ?", *filter.PaymentId)
	}
	if filter.InvoiceId != nil {
		q = q.Where("invoice_id = ?", *filter.InvoiceId)
	}
	var allocs []models.Allocation
	if err := q.Order("id ASC").Find(&allocs).Error; err != nil {
		return nil, err
	}
	return allocs, nil
}

func (s *Store) InsertAllocation(alloc *models.Allocation) error {
	return s.db.Create(alloc).Error
}

func (s *Store) DeleteAllocationsByPayment(paymentId uint) error {
	return s.db.Where("payment_id = ?", paymentId).Delete(&models.Allocation{}).Error
}

func (s *Store) DeleteAllocationByID(id uint) (int64, error) {
	res := s.db.Delete(&models.Allocation{}, id)
	return res.RowsAffected, res.Error
}

func (s *Store) Transact(fn func(tx engine.RecordStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
