// Package engine implements payment allocation and debt reconciliation:
// matching a payment's amount against outstanding invoices, validating draft
// allocation sets, applying them transactionally, and deriving invoice and
// payment statuses from allocation sums instead of stored flags.
package engine

import (
	"fmt"
	"sort"
	"sync"

	"pembukuan-backend/models"

	"github.com/rs/zerolog"
)

// Draft is one proposed allocation row of an in-memory edit. InvoiceId 0
// means "no invoice selected yet". Drafts are plain values passed by the
// caller; the engine holds no edit state between calls.
type Draft struct {
	InvoiceId uint  `json:"invoice_id"`
	Amount    int64 `json:"amount"`
}

// Candidate is an invoice annotated with its current remaining balance,
// offered as an allocation target for a payment.
type Candidate struct {
	Invoice   models.Invoice `json:"invoice"`
	Remaining int64          `json:"remaining"`
}

// Engine is the allocation core. Reads are side-effect-free; mutations run
// inside one store transaction each and are serialized per payment by an
// in-flight guard.
type Engine struct {
	store RecordStore
	log   zerolog.Logger

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

func New(store RecordStore, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		log:      log.With().Str("component", "engine").Logger(),
		inFlight: make(map[uint]struct{}),
	}
}

// acquire marks paymentId as having a mutation in flight. Returns false if
// one is already running.
func (e *Engine) acquire(paymentId uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[paymentId]; busy {
		return false
	}
	e.inFlight[paymentId] = struct{}{}
	return true
}

func (e *Engine) release(paymentId uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, paymentId)
}

// RemainingBalance returns the invoice amount minus the sum of its
// allocations. Side-effect-free read.
func (e *Engine) RemainingBalance(invoiceId uint) (int64, error) {
	return remainingBalance(e.store, invoiceId)
}

func remainingBalance(s RecordStore, invoiceId uint) (int64, error) {
	inv, err := s.FindInvoiceByID(invoiceId)
	if err != nil {
		return 0, err
	}
	if inv == nil {
		return 0, ErrInvoiceNotFound
	}
	allocs, err := s.FindAllocations(ByInvoice(invoiceId))
	if err != nil {
		return 0, err
	}
	return InvoiceRemaining(inv, allocs), nil
}

// PaymentUnallocated returns the payment amount minus the sum of its
// allocations.
func (e *Engine) PaymentUnallocated(paymentId uint) (int64, error) {
	p, err := e.store.FindPaymentByID(paymentId)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, ErrPaymentNotFound
	}
	allocs, err := e.store.FindAllocations(ByPayment(paymentId))
	if err != nil {
		return 0, err
	}
	return PaymentUnallocated(p, allocs), nil
}

// CandidateInvoices lists the contact's invoices whose type matches the
// payment's settlement direction (income settles sales, expense settles
// purchase), annotated with their current remaining balance, filtered to
// remaining > 0, ordered by entry date ascending with id as the tie-break.
func (e *Engine) CandidateInvoices(contactId uint, paymentType string) ([]Candidate, error) {
	return candidateInvoices(e.store, contactId, paymentType)
}

func candidateInvoices(s RecordStore, contactId uint, paymentType string) ([]Candidate, error) {
	invoices, err := s.FindInvoices(contactId, models.SettlesInvoiceType(paymentType), nil)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(invoices))
	for _, inv := range invoices {
		allocs, err := s.FindAllocations(ByInvoice(inv.Id))
		if err != nil {
			return nil, err
		}
		remaining := InvoiceRemaining(&inv, allocs)
		if remaining <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{Invoice: inv, Remaining: remaining})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Invoice, candidates[j].Invoice
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.Id < b.Id
	})
	return candidates, nil
}

// AutoAllocate proposes how paymentAmount should settle the candidates:
// consume them in their given (date-ascending) order, give each invoice
// min(running balance, invoice remaining), stop when the balance runs out.
// Zero-amount rows are omitted. Fully deterministic; writes nothing.
func AutoAllocate(paymentAmount int64, candidates []Candidate) []Draft {
	var drafts []Draft
	balance := paymentAmount
	for _, cand := range candidates {
		if balance <= 0 {
			break
		}
		amount := min64(balance, cand.Remaining)
		if amount <= 0 {
			continue
		}
		drafts = append(drafts, Draft{InvoiceId: cand.Invoice.Id, Amount: amount})
		balance -= amount
	}
	return drafts
}

// Validate checks a draft set against the allocation invariants. First
// failure wins, in this order: duplicate invoice, missing invoice,
// non-positive amount, exceeds invoice remaining, exceeds payment amount.
//
// remaining maps invoice id to its remaining balance, computed by the caller
// excluding any rows the draft set is editing. otherAllocated is the sum
// already allocated from the payment outside this edit set (zero for a
// replace-all edit). Pure function; returns nil when the set is valid, so
// callers can run it on every keystroke.
func Validate(drafts []Draft, paymentAmount int64, remaining map[uint]int64, otherAllocated int64) error {
	// Unselected rows (id 0) count here too: two blank rows are a
	// duplicate before they are a missing invoice.
	seen := make(map[uint]struct{}, len(drafts))
	for _, d := range drafts {
		if _, dup := seen[d.InvoiceId]; dup {
			return ViolationDuplicateInvoice
		}
		seen[d.InvoiceId] = struct{}{}
	}

	for _, d := range drafts {
		if d.InvoiceId == 0 {
			return ViolationInvoiceMissing
		}
	}

	var total int64
	for _, d := range drafts {
		if d.Amount <= 0 {
			return ViolationNonPositiveAmount
		}
		total += d.Amount
	}

	for _, d := range drafts {
		if d.Amount > remaining[d.InvoiceId] {
			return ViolationExceedsInvoiceRemaining
		}
	}

	if total > paymentAmount-otherAllocated {
		return ViolationExceedsPaymentAmount
	}
	return nil
}

// ApplyAllocations redefines a payment's full allocation set: inside one
// transaction, every existing allocation for the payment is deleted and the
// draft rows are inserted. All or nothing; a failed insert leaves the
// pre-operation rows in place. Drafts are revalidated against the store at
// commit time, with the payment's own rows excluded from invoice remainders
// since they are being replaced.
func (e *Engine) ApplyAllocations(paymentId uint, drafts []Draft) error {
	if !e.acquire(paymentId) {
		return ErrAllocationInFlight
	}
	defer e.release(paymentId)

	err := e.store.Transact(func(tx RecordStore) error {
		payment, remaining, err := loadForCommit(tx, paymentId, drafts, true)
		if err != nil {
			return err
		}
		if err := Validate(drafts, payment.Amount, remaining, 0); err != nil {
			return err
		}
		if err := tx.DeleteAllocationsByPayment(paymentId); err != nil {
			return fmt.Errorf("clear allocations: %w", err)
		}
		return insertDrafts(tx, paymentId, drafts)
	})
	if err != nil {
		return err
	}

	e.log.Info().Uint("payment_id", paymentId).Int("rows", len(drafts)).
		Msg("allocations replaced")
	return nil
}

// AppendAllocations adds draft rows to a payment without touching its
// existing allocations, inside one transaction. Remaining balances are
// re-read at commit time, not from the caller's proposal-time snapshot, in
// case an invoice was partially consumed since the rows were proposed.
func (e *Engine) AppendAllocations(paymentId uint, drafts []Draft) error {
	if !e.acquire(paymentId) {
		return ErrAllocationInFlight
	}
	defer e.release(paymentId)

	err := e.store.Transact(func(tx RecordStore) error {
		payment, remaining, err := loadForCommit(tx, paymentId, drafts, false)
		if err != nil {
			return err
		}
		existing, err := tx.FindAllocations(ByPayment(paymentId))
		if err != nil {
			return err
		}
		if err := Validate(drafts, payment.Amount, remaining, AllocatedTotal(existing)); err != nil {
			return err
		}
		return insertDrafts(tx, paymentId, drafts)
	})
	if err != nil {
		return err
	}

	e.log.Info().Uint("payment_id", paymentId).Int("rows", len(drafts)).
		Msg("allocations appended")
	return nil
}

// DeleteAllocation removes a single allocation row. The parent invoice's
// status and the payment's unallocated amount are derived on the next read,
// so there is no cached value to invalidate.
func (e *Engine) DeleteAllocation(allocationId uint) error {
	rows, err := e.store.DeleteAllocationByID(allocationId)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAllocationNotFound
	}
	e.log.Info().Uint("allocation_id", allocationId).Msg("allocation deleted")
	return nil
}

// loadForCommit fetches the payment and builds the commit-time remaining
// map for every invoice the drafts reference. Each invoice must exist,
// belong to the payment's contact and match its settlement direction. With
// excludeOwn set (replace-all), the payment's own rows are left out of the
// invoice sums.
func loadForCommit(tx RecordStore, paymentId uint, drafts []Draft, excludeOwn bool) (*models.Payment, map[uint]int64, error) {
	payment, err := tx.FindPaymentByID(paymentId)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, ErrPaymentNotFound
	}

	remaining := make(map[uint]int64, len(drafts))
	for _, d := range drafts {
		if d.InvoiceId == 0 {
			continue // Validate reports this as a violation
		}
		if _, done := remaining[d.InvoiceId]; done {
			continue
		}
		inv, err := tx.FindInvoiceByID(d.InvoiceId)
		if err != nil {
			return nil, nil, err
		}
		if inv == nil {
			return nil, nil, ErrInvoiceNotFound
		}
		if inv.ContactId != payment.ContactId || inv.Type != models.SettlesInvoiceType(payment.Type) {
			return nil, nil, ErrIncompatibleInvoice
		}
		allocs, err := tx.FindAllocations(ByInvoice(inv.Id))
		if err != nil {
			return nil, nil, err
		}
		var allocated int64
		for _, a := range allocs {
			if excludeOwn && a.PaymentId == paymentId {
				continue
			}
			allocated += a.Amount
		}
		remaining[d.InvoiceId] = inv.Amount - allocated
	}
	return payment, remaining, nil
}

func insertDrafts(tx RecordStore, paymentId uint, drafts []Draft) error {
	for _, d := range drafts {
		alloc := models.Allocation{
			PaymentId: paymentId,
			InvoiceId: d.InvoiceId,
			Amount:    d.Amount,
		}
		if err := tx.InsertAllocation(&alloc); err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
