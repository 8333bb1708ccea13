package controllers

import (
	"pembukuan-backend/database"
	"pembukuan-backend/middlewares"
	"pembukuan-backend/models"
	"pembukuan-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type createContactDTO struct {
	Name        string  `json:"name" validate:"required"`
	PhoneNumber *string `json:"phone_number"`
	Category    string  `json:"category" validate:"required,oneof=supplier client driver others"`
	Notes       string  `json:"notes"`
}

type updateContactDTO struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Category    *string `json:"category" validate:"omitempty,oneof=supplier client driver others"`
	Notes       *string `json:"notes"`
}

func CreateContact(c *fiber.Ctx) error {
	var dto createContactDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	contact := models.Contact{
		Name:        dto.Name,
		PhoneNumber: dto.PhoneNumber,
		Category:    dto.Category,
		Notes:       dto.Notes,
	}
	if err := database.DB.Create(&contact).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create contact",
			"error":   err.Error(),
		})
	}
	return c.JSON(contact)
}

func GetContacts(c *fiber.Ctx) error {
	q := database.DB.Model(&models.Contact{})
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if search := c.Query("q"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var contacts []models.Contact
	if err := q.Order("id DESC").Limit(utils.ParseIntDefault(c.Query("limit"), 40)).Find(&contacts).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"contacts": contacts,
		"message":  "success",
	})
}

func GetContact(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid contact id")
	}

	var contact models.Contact
	if err := database.DB.First(&contact, id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "contact not found")
	}
	return c.JSON(contact)
}

func UpdateContact(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid contact id")
	}

	var dto updateContactDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := database.DB.Model(&models.Contact{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update contact",
			"error":   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "contact not found")
	}

	var contact models.Contact
	database.DB.First(&contact, id)
	return c.JSON(contact)
}

// DeleteContact removes a contact and cascades to its invoices and
// payments, which cascade to their allocations.
func DeleteContact(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid contact id")
	}

	res := database.DB.Select("Invoices", "Payments").Delete(&models.Contact{Id: uint(id)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "contact not found")
	}
	return c.JSON(fiber.Map{"message": "success"})
}
