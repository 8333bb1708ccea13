package database

import (
	"fmt"

	"pembukuan-backend/models"

	"gorm.io/gorm"
)

// Migrate applies idempotent schema migrations:
//   - AutoMigrate (tables/columns/index tags)
//   - CHECK constraints keeping stored amounts strictly positive
//   - Foreign keys with ON DELETE CASCADE from allocations to both parents,
//     so deleting an invoice or payment always removes its allocations even
//     when the delete bypasses GORM associations
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Contact{},
			&models.Invoice{},
			&models.Payment{},
			&models.Allocation{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		checks := []struct{ name, table, expr string }{
			{"chk_invoices_amount_positive", "invoices", "amount > 0"},
			{"chk_payments_amount_positive", "payments", "amount > 0"},
			{"chk_allocations_amount_positive", "allocations", "amount > 0"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
				END IF;
			END $$;`, c.name, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint %s failed: %w", c.name, err)
			}
		}

		return nil
	})
}
