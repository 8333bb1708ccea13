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

type createPaymentDTO struct {
	ContactId   uint           `json:"contact_id" validate:"required"`
	Type        string         `json:"type" validate:"required,oneof=income expense"`
	Amount      int64          `json:"amount" validate:"required,gt=0"`
	Method      string         `json:"method" validate:"required,oneof=cash bank_transfer others"`
	PaymentDate string         `json:"payment_date" validate:"required"`
	Notes       string         `json:"notes"`
	MediaRef    datatypes.JSON `json:"media_ref"`
}

type updatePaymentDTO struct {
	Amount      *int64          `json:"amount" validate:"omitempty,gt=0"`
	Method      *string         `json:"method" validate:"omitempty,oneof=cash bank_transfer others"`
	PaymentDate *string         `json:"payment_date"`
	Notes       *string         `json:"notes"`
	MediaRef    *datatypes.JSON `json:"media_ref"`
}

// paymentView is a payment plus its derived unallocated amount.
type paymentView struct {
	models.Payment
	Unallocated int64 `json:"unallocated"`
}

func CreatePayment(c *fiber.Ctx) error {
	var dto createPaymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	paymentDate, err := utils.ParseDate(dto.PaymentDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var contact models.Contact
	if err := database.DB.First(&contact, dto.ContactId).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "contact not found")
	}

	payment := models.Payment{
		ContactId:   dto.ContactId,
		Type:        dto.Type,
		Amount:      dto.Amount,
		Method:      dto.Method,
		PaymentDate: paymentDate,
		Notes:       dto.Notes,
		MediaRef:    dto.MediaRef,
	}
	if err := database.DB.Create(&payment).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create payment",
			"error":   err.Error(),
		})
	}
	return c.JSON(payment)
}

func GetPayments(c *fiber.Ctx) error {
	q := database.DB.Model(&models.Payment{})
	if contactId := utils.ParseIntDefault(c.Query("contact_id"), 0); contactId > 0 {
		q = q.Where("contact_id = ?", contactId)
	}
	if paymentType := c.Query("type"); paymentType != "" {
		q = q.Where("type = ?", paymentType)
	}

	var payments []models.Payment
	if err := q.Order("payment_date DESC, id DESC").Find(&payments).Error; err != nil {
		return err
	}

	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		allocs, err := store.FindAllocations(engine.ByPayment(p.Id))
		if err != nil {
			return err
		}
		views = append(views, paymentView{
			Payment:     p,
			Unallocated: engine.PaymentUnallocated(&p, allocs),
		})
	}
	return c.JSON(fiber.Map{
		"payments": views,
		"message":  "success",
	})
}

func GetPayment(c *fiber.Ctx) error {
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

	allocs, err := store.FindAllocations(engine.ByPayment(p.Id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"payment": paymentView{
			Payment:     *p,
			Unallocated: engine.PaymentUnallocated(p, allocs),
		},
		"allocations": allocs,
	})
}

func UpdatePayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var dto updatePaymentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	p, err := store.FindPaymentByID(uint(id))
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPaymentNotFound
	}

	// An allocated payment's amount is locked: its allocations reference a
	// specific amount. The caller must clear the allocations first.
	if dto.Amount != nil {
		allocs, err := store.FindAllocations(engine.ByPayment(p.Id))
		if err != nil {
			return err
		}
		if len(allocs) > 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				"amount is locked while the payment has allocations")
		}
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if date, ok := updates["payment_date"].(string); ok {
		parsed, err := utils.ParseDate(date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updates["payment_date"] = parsed
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := database.DB.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update payment",
			"error":   err.Error(),
		})
	}

	var payment models.Payment
	database.DB.First(&payment, id)
	return c.JSON(payment)
}

// DeletePayment removes a payment and its allocations.
func DeletePayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	res := database.DB.Select("Allocations").Delete(&models.Payment{Id: uint(id)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return engine.ErrPaymentNotFound
	}
	return c.JSON(fiber.Map{"message": "success"})
}
