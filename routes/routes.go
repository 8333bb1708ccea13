package routes

import (
	"github.com/gofiber/fiber/v2"

	"pembukuan-backend/controllers"
	"pembukuan-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard for mutating requests
	protected.Use(middlewares.Idempotency())

	// Contacts
	protected.Post("/contact", controllers.CreateContact)
	protected.Get("/contacts", controllers.GetContacts)
	protected.Get("/contact/:id", controllers.GetContact)
	protected.Put("/contact/:id", controllers.UpdateContact)
	protected.Delete("/contact/:id", controllers.DeleteContact)

	// Invoices (amount immutable after creation; status always derived)
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Put("/invoice/:id", controllers.UpdateInvoice)
	protected.Delete("/invoice/:id", controllers.DeleteInvoice)
	protected.Get("/invoice/:id/remaining", controllers.GetInvoiceRemaining)

	// Payments
	protected.Post("/payment", controllers.CreatePayment)
	protected.Get("/payments", controllers.GetPayments)
	protected.Get("/payment/:id", controllers.GetPayment)
	protected.Put("/payment/:id", controllers.UpdatePayment)
	protected.Delete("/payment/:id", controllers.DeletePayment)

	// Allocation engine
	protected.Get("/payment/:id/candidates", controllers.GetCandidates)
	protected.Post("/payment/:id/allocations/auto", controllers.ProposeAutoAllocation)
	protected.Put("/payment/:id/allocations", controllers.ApplyAllocations)
	protected.Post("/payment/:id/allocations", controllers.AppendAllocations)
	protected.Delete("/allocation/:id", controllers.DeleteAllocation)

	// Reports
	protected.Get("/reports/debt", controllers.DebtReport)
}
