package engine

import (
	"sort"
	"time"

	"pembukuan-backend/models"
)

// Direction selects one settlement direction of a contact relationship.
type Direction string

const (
	// DirectionReceivable: sales invoices settled by income payments; what
	// the contact owes the business.
	DirectionReceivable Direction = "receivable"
	// DirectionPayable: purchase invoices settled by expense payments; what
	// the business owes the contact.
	DirectionPayable Direction = "payable"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionReceivable || d == DirectionPayable
}

func (d Direction) invoiceType() string {
	if d == DirectionReceivable {
		return models.InvoiceTypeSales
	}
	return models.InvoiceTypePurchase
}

func (d Direction) paymentType() string {
	if d == DirectionReceivable {
		return models.PaymentTypeIncome
	}
	return models.PaymentTypeExpense
}

// Ledger entry kinds.
const (
	EntryInvoice = "invoice"
	EntryPayment = "payment"
)

// LedgerEntry is one chronological line of a contact's debt ledger.
// Invoices carry a positive signed amount (they grow the debt), payments a
// negative one. Balance is the cumulative signed sum up to and including
// this entry, within the requested window only.
type LedgerEntry struct {
	Kind    string    `json:"kind"`
	RefId   uint      `json:"ref_id"`
	Code    string    `json:"code,omitempty"` // invoice code; empty for payments
	Date    time.Time `json:"date"`
	Amount  int64     `json:"amount"`
	Signed  int64     `json:"signed"`
	Balance int64     `json:"balance"`
}

// Ledger is the time-ordered debt view for one contact and one direction.
//
// RunningTotal is computed over the filtered window only: if the requested
// range truncates history, it is not the cumulative balance since the
// relationship began. The window bounds are echoed back so callers can see
// the truncation; no opening balance is carried forward.
type Ledger struct {
	ContactId    uint          `json:"contact_id"`
	Direction    Direction     `json:"direction"`
	From         *time.Time    `json:"from,omitempty"`
	To           *time.Time    `json:"to,omitempty"`
	Entries      []LedgerEntry `json:"entries"`
	RunningTotal int64         `json:"running_total"`
}

// RemainingDebt is the absolute window total; Direction (plus the sign of
// RunningTotal) tells the caller which side owes.
func (l *Ledger) RemainingDebt() int64 {
	if l.RunningTotal < 0 {
		return -l.RunningTotal
	}
	return l.RunningTotal
}

// BuildLedger assembles the chronological debt ledger for one contact and
// direction, optionally restricted to an inclusive date window. Entries are
// sorted by date ascending; an invoice and a payment sharing a date have no
// specified precedence (the stable sort keeps invoices ahead of payments
// within a day, but callers must not rely on it).
func (e *Engine) BuildLedger(contactId uint, dir Direction, within *DateRange) (*Ledger, error) {
	invoices, err := e.store.FindInvoices(contactId, dir.invoiceType(), within)
	if err != nil {
		return nil, err
	}
	payments, err := e.store.FindPayments(contactId, dir.paymentType(), within)
	if err != nil {
		return nil, err
	}

	entries := make([]LedgerEntry, 0, len(invoices)+len(payments))
	for _, inv := range invoices {
		entries = append(entries, LedgerEntry{
			Kind:   EntryInvoice,
			RefId:  inv.Id,
			Code:   inv.Code,
			Date:   inv.EntryDate,
			Amount: inv.Amount,
			Signed: inv.Amount,
		})
	}
	for _, p := range payments {
		entries = append(entries, LedgerEntry{
			Kind:   EntryPayment,
			RefId:  p.Id,
			Date:   p.PaymentDate,
			Amount: p.Amount,
			Signed: -p.Amount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	var total int64
	for i := range entries {
		total += entries[i].Signed
		entries[i].Balance = total
	}

	ledger := &Ledger{
		ContactId:    contactId,
		Direction:    dir,
		Entries:      entries,
		RunningTotal: total,
	}
	if within != nil {
		ledger.From = within.From
		ledger.To = within.To
	}
	return ledger, nil
}
