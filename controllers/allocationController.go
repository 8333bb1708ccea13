package controllers

import (
	"pembukuan-backend/engine"
	"pembukuan-backend/middlewares"

	"github.com/gofiber/fiber/v2"
)

// An empty allocations array is a valid replace-all: it clears the payment.
type draftSetDTO struct {
	Allocations []engine.Draft `json:"allocations"`
}

// GetCandidates lists the invoices a payment could settle, newest debt
// last: matching type, remaining > 0, entry date ascending.
func GetCandidates(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	p, err := store.FindPaymentByID(uint(id))
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPaymentNotFound
	}

	candidates, err := alloc.CandidateInvoices(p.ContactId, p.Type)
	if err != nil {
		return err
	}

	allocs, err := store.FindAllocations(engine.ByPayment(p.Id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"candidates":  candidates,
		"unallocated": engine.PaymentUnallocated(p, allocs),
	})
}

// ProposeAutoAllocation returns the deterministic FIFO proposal for the
// payment's full amount against its current candidates. Proposal only:
// nothing is written until the client confirms via ApplyAllocations.
func ProposeAutoAllocation(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	p, err := store.FindPaymentByID(uint(id))
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPaymentNotFound
	}

	candidates, err := alloc.CandidateInvoices(p.ContactId, p.Type)
	if err != nil {
		return err
	}

	drafts := engine.AutoAllocate(p.Amount, candidates)
	var allocated int64
	for _, d := range drafts {
		allocated += d.Amount
	}
	return c.JSON(fiber.Map{
		"allocations": drafts,
		"allocated":   allocated,
		"leftover":    p.Amount - allocated,
	})
}

// ApplyAllocations replaces the payment's entire allocation set with the
// posted drafts, atomically.
func ApplyAllocations(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var dto draftSetDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	if err := alloc.ApplyAllocations(uint(id), dto.Allocations); err != nil {
		return err
	}

	allocs, err := store.FindAllocations(engine.ByPayment(uint(id)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":     "success",
		"allocations": allocs,
	})
}

// AppendAllocations adds drafts to the payment's existing allocations,
// atomically, revalidated against current remaining balances.
func AppendAllocations(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var dto draftSetDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	if err := alloc.AppendAllocations(uint(id), dto.Allocations); err != nil {
		return err
	}

	allocs, err := store.FindAllocations(engine.ByPayment(uint(id)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":     "success",
		"allocations": allocs,
	})
}

func DeleteAllocation(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid allocation id")
	}

	if err := alloc.DeleteAllocation(uint(id)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

// GetInvoiceRemaining reports an invoice's remaining balance and derived
// status.
func GetInvoiceRemaining(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	remaining, err := alloc.RemainingBalance(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"remaining": remaining,
		"status":    engine.StatusOf(remaining),
	})
}
