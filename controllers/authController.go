package controllers

import (
	"net/mail"
	"strings"

	"pembukuan-backend/database"
	"pembukuan-backend/middlewares"
	"pembukuan-backend/models"

	"github.com/gofiber/fiber/v2"
)

func Register(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	email := strings.TrimSpace(strings.ToLower(data["email"]))
	if _, err := mail.ParseAddress(email); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "invalid email address"})
	}

	var mailExist models.User
	database.DB.Where("email = ?", email).First(&mailExist)
	if mailExist.Email != "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "email already exists",
		})
	}

	if len(data["password"]) < 8 {
		c.Status(400)
		return c.JSON(fiber.Map{
			"message": "password must be at least 8 characters",
		})
	}
	if data["password"] != data["password_confirm"] {
		c.Status(400)
		return c.JSON(fiber.Map{
			"message": "passwords do not match",
		})
	}

	user := models.User{
		Name:  strings.TrimSpace(data["name"]),
		Email: email,
	}
	user.SetPassword(data["password"])

	if err := database.DB.Create(&user).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create user",
			"error":   err.Error(),
		})
	}

	return c.JSON(user)
}

func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	email := strings.TrimSpace(strings.ToLower(data["email"]))

	var user models.User
	database.DB.Where("email = ?", email).First(&user)
	if user.Id == "" {
		c.Status(fiber.StatusNotFound)
		return c.JSON(fiber.Map{"message": "user not found"})
	}

	if err := user.ComparePassword(data["password"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"message": "incorrect password"})
	}

	token, err := middlewares.GenerateJWT(user.Id)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"message": "could not login"})
	}

	return c.JSON(fiber.Map{
		"message": "success",
		"token":   token,
		"user":    user,
	})
}

// Logout is a no-op server side; bearer tokens simply expire. Kept so
// clients have a uniform endpoint to call.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "success"})
}
