package controllers

import (
	"pembukuan-backend/database"
	"pembukuan-backend/engine"
	"pembukuan-backend/middlewares"
	"pembukuan-backend/models"
	"pembukuan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type createInvoiceDTO struct {
	Code      string         `json:"code" validate:"required"`
	ContactId uint           `json:"contact_id" validate:"required"`
	Type      string         `json:"type" validate:"required,oneof=sales purchase"`
	Amount    int64          `json:"amount" validate:"required,gt=0"`
	EntryDate string         `json:"entry_date" validate:"required"`
	Notes     string         `json:"notes"`
	MediaRef  datatypes.JSON `json:"media_ref"`
}

// Amount and type are immutable after creation; only notes, media and the
// entry date can change.
type updateInvoiceDTO struct {
	EntryDate *string         `json:"entry_date"`
	Notes     *string         `json:"notes"`
	MediaRef  *datatypes.JSON `json:"media_ref"`
}

// invoiceView is an invoice plus its derived settlement state.
type invoiceView struct {
	models.Invoice
	Remaining int64  `json:"remaining"`
	Status    string `json:"status"`
}

func projectInvoice(inv models.Invoice) (invoiceView, error) {
	allocs, err := store.FindAllocations(engine.ByInvoice(inv.Id))
	if err != nil {
		return invoiceView{}, err
	}
	remaining := engine.InvoiceRemaining(&inv, allocs)
	return invoiceView{
		Invoice:   inv,
		Remaining: remaining,
		Status:    engine.StatusOf(remaining),
	}, nil
}

func CreateInvoice(c *fiber.Ctx) error {
	var dto createInvoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	entryDate, err := utils.ParseDate(dto.EntryDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var contact models.Contact
	if err := database.DB.First(&contact, dto.ContactId).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "contact not found")
	}

	invoice := models.Invoice{
		Code:      dto.Code,
		ContactId: dto.ContactId,
		Type:      dto.Type,
		Amount:    dto.Amount,
		EntryDate: entryDate,
		Notes:     dto.Notes,
		MediaRef:  dto.MediaRef,
	}
	if err := database.DB.Create(&invoice).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create invoice",
			"error":   err.Error(),
		})
	}
	return c.JSON(invoice)
}

func GetInvoices(c *fiber.Ctx) error {
	q := database.DB.Model(&models.Invoice{})
	if contactId := utils.ParseIntDefault(c.Query("contact_id"), 0); contactId > 0 {
		q = q.Where("contact_id = ?", contactId)
	}
	if invoiceType := c.Query("type"); invoiceType != "" {
		q = q.Where("type = ?", invoiceType)
	}

	var invoices []models.Invoice
	if err := q.Order("entry_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return err
	}

	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		view, err := projectInvoice(inv)
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	return c.JSON(fiber.Map{
		"invoices": views,
		"message":  "success",
	})
}

func GetInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	inv, err := store.FindInvoiceByID(uint(id))
	if err != nil {
		return err
	}
	if inv == nil {
		return engine.ErrInvoiceNotFound
	}

	view, err := projectInvoice(*inv)
	if err != nil {
		return err
	}
	allocs, err := store.FindAllocations(engine.ByInvoice(inv.Id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"invoice":     view,
		"allocations": allocs,
	})
}

func UpdateInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	var dto updateInvoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if date, ok := updates["entry_date"].(string); ok {
		parsed, err := utils.ParseDate(date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updates["entry_date"] = parsed
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := database.DB.Model(&models.Invoice{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update invoice",
			"error":   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return engine.ErrInvoiceNotFound
	}

	var invoice models.Invoice
	database.DB.First(&invoice, id)
	return c.JSON(invoice)
}

// DeleteInvoice removes an invoice and its allocations.
func DeleteInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	res := database.DB.Select("Allocations").Delete(&models.Invoice{Id: uint(id)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return engine.ErrInvoiceNotFound
	}
	return c.JSON(fiber.Map{"message": "success"})
}
