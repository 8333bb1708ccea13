package controllers

import (
	"pembukuan-backend/engine"
	"pembukuan-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// DebtReport builds the chronological debt ledger for one contact and
// direction, optionally windowed by from/to (inclusive, YYYY-MM-DD).
//
// The running total covers the requested window only. If the relationship
// predates the window the reported remaining debt is not the cumulative
// balance since inception; the window bounds are echoed in the response so
// the client can label it.
func DebtReport(c *fiber.Ctx) error {
	contactId := utils.ParseIntDefault(c.Query("contact_id"), 0)
	if contactId <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "contact_id is required")
	}

	dir := engine.Direction(c.Query("direction"))
	if !dir.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "direction must be receivable or payable")
	}

	from, err := utils.ParseDateOptional(c.Query("from"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := utils.ParseDateOptional(c.Query("to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var within *engine.DateRange
	if from != nil || to != nil {
		within = &engine.DateRange{From: from, To: to}
	}

	ledger, err := alloc.BuildLedger(uint(contactId), dir, within)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ledger":         ledger,
		"remaining_debt": ledger.RemainingDebt(),
	})
}
