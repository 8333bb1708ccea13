package database_test

import (
	"errors"
	"testing"
	"time"

	"pembukuan-backend/database"
	"pembukuan-backend/engine"
	"pembukuan-backend/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*database.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection: each :memory: connection is its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Contact{},
		&models.Invoice{},
		&models.Payment{},
		&models.Allocation{},
	))
	return database.NewStore(db), db
}

func newTestEngine(t *testing.T) (*engine.Engine, *database.Store, *gorm.DB) {
	t.Helper()
	store, db := newTestStore(t)
	return engine.New(store, zerolog.Nop()), store, db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func seedContact(t *testing.T, db *gorm.DB, name string) models.Contact {
	t.Helper()
	contact := models.Contact{Name: name, Category: models.CategoryClient}
	require.NoError(t, db.Create(&contact).Error)
	return contact
}

func seedInvoice(t *testing.T, db *gorm.DB, contactId uint, code, invType string, amount int64, entryDate string) models.Invoice {
	t.Helper()
	inv := models.Invoice{
		Code:      code,
		ContactId: contactId,
		Type:      invType,
		Amount:    amount,
		EntryDate: date(t, entryDate),
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func seedPayment(t *testing.T, db *gorm.DB, contactId uint, payType string, amount int64, paymentDate string) models.Payment {
	t.Helper()
	p := models.Payment{
		ContactId:   contactId,
		Type:        payType,
		Amount:      amount,
		Method:      models.MethodCash,
		PaymentDate: date(t, paymentDate),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func allocationsFor(t *testing.T, s *database.Store, paymentId uint) []models.Allocation {
	t.Helper()
	allocs, err := s.FindAllocations(engine.ByPayment(paymentId))
	require.NoError(t, err)
	return allocs
}

func TestApplyAllocationsReplaceAll(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	invA := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 400_000, "2025-01-10")
	invB := seedInvoice(t, db, contact.Id, "INV-002", models.InvoiceTypeSales, 700_000, "2025-02-01")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 1_000_000, "2025-02-15")

	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{
		{InvoiceId: invA.Id, Amount: 400_000},
		{InvoiceId: invB.Id, Amount: 600_000},
	}))

	allocs := allocationsFor(t, store, payment.Id)
	require.Len(t, allocs, 2)
	assert.Equal(t, int64(1_000_000), engine.AllocatedTotal(allocs))

	// Replace-all with a different set: the old rows are gone.
	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{
		{InvoiceId: invB.Id, Amount: 250_000},
	}))

	allocs = allocationsFor(t, store, payment.Id)
	require.Len(t, allocs, 1)
	assert.Equal(t, invB.Id, allocs[0].InvoiceId)
	assert.Equal(t, int64(250_000), allocs[0].Amount)

	// Invoice A's remaining went back up after the replace.
	remaining, err := e.RemainingBalance(invA.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(400_000), remaining)
}

func TestApplyAllocationsEmptySetClears(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 100, "2025-01-10")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 100, "2025-02-15")

	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 100}}))
	require.NoError(t, e.ApplyAllocations(payment.Id, nil))

	assert.Empty(t, allocationsFor(t, store, payment.Id))
}

func TestApplyAllocationsExcludesOwnRowsOnReEdit(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 500, "2025-01-10")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 500, "2025-02-15")

	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 500}}))

	// Re-editing the same payment: its own 500 must not count against the
	// invoice's remaining, or every re-apply would reject itself.
	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 400}}))

	remaining, err := e.RemainingBalance(inv.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), remaining)
}

func TestApplyAllocationsValidatesAgainstOtherPayments(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 500, "2025-01-10")
	first := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 300, "2025-02-01")
	second := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 300, "2025-02-15")

	require.NoError(t, e.ApplyAllocations(first.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 300}}))

	// Only 200 is left on the invoice now.
	err := e.ApplyAllocations(second.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 300}})
	assert.ErrorIs(t, err, engine.ViolationExceedsInvoiceRemaining)
	assert.Empty(t, allocationsFor(t, store, second.Id))
}

// flakyStore fails allocation inserts after the first one, to force a
// mid-transaction failure between the delete and the last insert.
type flakyStore struct {
	engine.RecordStore
	failAfter int
	inserts   *int
}

func (f *flakyStore) InsertAllocation(alloc *models.Allocation) error {
	*f.inserts++
	if *f.inserts > f.failAfter {
		return errors.New("simulated insert failure")
	}
	return f.RecordStore.InsertAllocation(alloc)
}

func (f *flakyStore) Transact(fn func(tx engine.RecordStore) error) error {
	return f.RecordStore.Transact(func(tx engine.RecordStore) error {
		return fn(&flakyStore{RecordStore: tx, failAfter: f.failAfter, inserts: f.inserts})
	})
}

func TestApplyAllocationsAtomicOnInsertFailure(t *testing.T) {
	store, db := newTestStore(t)
	contact := seedContact(t, db, "Toko Jaya")
	invA := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 400, "2025-01-10")
	invB := seedInvoice(t, db, contact.Id, "INV-002", models.InvoiceTypeSales, 400, "2025-02-01")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 800, "2025-02-15")

	good := engine.New(store, zerolog.Nop())
	require.NoError(t, good.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: invA.Id, Amount: 150}}))

	inserts := 0
	flaky := engine.New(&flakyStore{RecordStore: store, failAfter: 1, inserts: &inserts}, zerolog.Nop())

	// The replacement deletes the old row, inserts one new row, then fails
	// on the second insert: the whole transaction must roll back.
	err := flaky.ApplyAllocations(payment.Id, []engine.Draft{
		{InvoiceId: invA.Id, Amount: 300},
		{InvoiceId: invB.Id, Amount: 300},
	})
	require.Error(t, err)

	allocs := allocationsFor(t, store, payment.Id)
	require.Len(t, allocs, 1, "pre-operation allocation set must survive")
	assert.Equal(t, invA.Id, allocs[0].InvoiceId)
	assert.Equal(t, int64(150), allocs[0].Amount)
}

func TestApplyAllocationsNotFound(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 100, "2025-01-10")

	err := e.ApplyAllocations(9999, []engine.Draft{{InvoiceId: inv.Id, Amount: 100}})
	assert.ErrorIs(t, err, engine.ErrPaymentNotFound)

	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 100, "2025-02-15")
	err = e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: 9999, Amount: 100}})
	assert.ErrorIs(t, err, engine.ErrInvoiceNotFound)
}

func TestApplyAllocationsIncompatibleInvoice(t *testing.T) {
	e, _, db := newTestEngine(t)
	client := seedContact(t, db, "Toko Jaya")
	other := seedContact(t, db, "CV Makmur")

	// Wrong settlement direction: income cannot settle a purchase invoice.
	purchase := seedInvoice(t, db, client.Id, "INV-P01", models.InvoiceTypePurchase, 100, "2025-01-10")
	payment := seedPayment(t, db, client.Id, models.PaymentTypeIncome, 100, "2025-02-15")
	err := e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: purchase.Id, Amount: 100}})
	assert.ErrorIs(t, err, engine.ErrIncompatibleInvoice)

	// Wrong contact.
	foreign := seedInvoice(t, db, other.Id, "INV-X01", models.InvoiceTypeSales, 100, "2025-01-10")
	err = e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: foreign.Id, Amount: 100}})
	assert.ErrorIs(t, err, engine.ErrIncompatibleInvoice)
}

func TestAppendAllocationsKeepsExistingRows(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	invA := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 300, "2025-01-10")
	invB := seedInvoice(t, db, contact.Id, "INV-002", models.InvoiceTypeSales, 300, "2025-02-01")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 600, "2025-02-15")

	require.NoError(t, e.AppendAllocations(payment.Id, []engine.Draft{{InvoiceId: invA.Id, Amount: 300}}))
	require.NoError(t, e.AppendAllocations(payment.Id, []engine.Draft{{InvoiceId: invB.Id, Amount: 300}}))

	allocs := allocationsFor(t, store, payment.Id)
	require.Len(t, allocs, 2)
	assert.Equal(t, int64(600), engine.AllocatedTotal(allocs))

	unallocated, err := e.PaymentUnallocated(payment.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unallocated)
}

func TestAppendAllocationsRevalidatesAtCommit(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 500, "2025-01-10")
	first := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 400, "2025-02-01")
	second := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 400, "2025-02-15")

	// Proposed when the invoice still had 500 remaining...
	drafts := []engine.Draft{{InvoiceId: inv.Id, Amount: 300}}

	// ...but another payment consumed most of it in the meantime.
	require.NoError(t, e.ApplyAllocations(first.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 400}}))

	err := e.AppendAllocations(second.Id, drafts)
	assert.ErrorIs(t, err, engine.ViolationExceedsInvoiceRemaining)
	assert.Empty(t, allocationsFor(t, store, second.Id))

	// The still-available 100 goes through.
	require.NoError(t, e.AppendAllocations(second.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 100}}))
}

func TestAppendAllocationsRespectsPaymentBudget(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	invA := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 500, "2025-01-10")
	invB := seedInvoice(t, db, contact.Id, "INV-002", models.InvoiceTypeSales, 500, "2025-02-01")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 500, "2025-02-15")

	require.NoError(t, e.AppendAllocations(payment.Id, []engine.Draft{{InvoiceId: invA.Id, Amount: 400}}))

	// Only 100 of the payment is left to give.
	err := e.AppendAllocations(payment.Id, []engine.Draft{{InvoiceId: invB.Id, Amount: 200}})
	assert.ErrorIs(t, err, engine.ViolationExceedsPaymentAmount)
}

func TestDeleteAllocationReopensInvoice(t *testing.T) {
	e, store, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 500, "2025-01-10")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 500, "2025-02-15")

	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 500}}))

	remaining, err := e.RemainingBalance(inv.Id)
	require.NoError(t, err)
	require.Equal(t, int64(0), remaining)
	require.Equal(t, engine.StatusPaid, engine.StatusOf(remaining))

	allocs := allocationsFor(t, store, payment.Id)
	require.Len(t, allocs, 1)
	require.NoError(t, e.DeleteAllocation(allocs[0].Id))

	// Derived, not cached: the next read reports pending again.
	remaining, err = e.RemainingBalance(inv.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), remaining)
	assert.Equal(t, engine.StatusPending, engine.StatusOf(remaining))
}

func TestDeleteAllocationNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.ErrorIs(t, e.DeleteAllocation(12345), engine.ErrAllocationNotFound)
}

func TestCandidateInvoicesOrderingAndFiltering(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	other := seedContact(t, db, "CV Makmur")

	late := seedInvoice(t, db, contact.Id, "INV-003", models.InvoiceTypeSales, 300, "2025-03-01")
	early := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 100, "2025-01-01")
	settled := seedInvoice(t, db, contact.Id, "INV-002", models.InvoiceTypeSales, 200, "2025-02-01")
	seedInvoice(t, db, contact.Id, "INV-P01", models.InvoiceTypePurchase, 999, "2025-01-01") // wrong type
	seedInvoice(t, db, other.Id, "INV-X01", models.InvoiceTypeSales, 999, "2025-01-01")      // wrong contact

	settlePayment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 200, "2025-02-05")
	require.NoError(t, e.ApplyAllocations(settlePayment.Id, []engine.Draft{{InvoiceId: settled.Id, Amount: 200}}))

	candidates, err := e.CandidateInvoices(contact.Id, models.PaymentTypeIncome)
	require.NoError(t, err)

	require.Len(t, candidates, 2, "settled, wrong-type and wrong-contact invoices are excluded")
	assert.Equal(t, early.Id, candidates[0].Invoice.Id)
	assert.Equal(t, late.Id, candidates[1].Invoice.Id)
	assert.Equal(t, int64(100), candidates[0].Remaining)
	assert.Equal(t, int64(300), candidates[1].Remaining)
}

func TestCandidateInvoicesTieBreakById(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	a := seedInvoice(t, db, contact.Id, "INV-A", models.InvoiceTypeSales, 100, "2025-01-15")
	b := seedInvoice(t, db, contact.Id, "INV-B", models.InvoiceTypeSales, 100, "2025-01-15")

	candidates, err := e.CandidateInvoices(contact.Id, models.PaymentTypeIncome)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, a.Id, candidates[0].Invoice.Id)
	assert.Equal(t, b.Id, candidates[1].Invoice.Id)
}

func TestCandidateInvoicesPartialRemaining(t *testing.T) {
	e, _, db := newTestEngine(t)
	contact := seedContact(t, db, "Toko Jaya")
	inv := seedInvoice(t, db, contact.Id, "INV-001", models.InvoiceTypeSales, 1_000, "2025-01-10")
	payment := seedPayment(t, db, contact.Id, models.PaymentTypeIncome, 400, "2025-02-01")
	require.NoError(t, e.ApplyAllocations(payment.Id, []engine.Draft{{InvoiceId: inv.Id, Amount: 400}}))

	candidates, err := e.CandidateInvoices(contact.Id, models.PaymentTypeIncome)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(600), candidates[0].Remaining)
}
