package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tx opens a per-request DB transaction, committed when the handler chain
// succeeds and rolled back otherwise.
// Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency()
// (so idempotency records aren't tied to the handler TX).
func Tx(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				zap.L().Error("tx commit failed", zap.Error(e))
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via database.Conn(c, db).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}
