package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ByLCY/papyrus-billing/models"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods.
// The first completed response for a key is replayed for later requests
// carrying the same key and body; a different body is a 409.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), userID)

		// ---- Phase 1: read/create "pending" under a short TX
		var (
			existing models.IdempotencyKey
			replay   bool
		)
		err := db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("key = ?", key).First(&existing).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				rec := models.IdempotencyKey{
					Key:         key,
					RequestHash: reqHash,
					Method:      method,
					Path:        path,
					UserID:      userID,
				}
				if e2 := tx.Create(&rec).Error; e2 != nil {
					// Could be unique race: read again
					if e3 := tx.Where("key = ?", key).First(&existing).Error; e3 != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
					}
				} else {
					existing = rec
				}
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			replay = existing.ResponseStatus != 0 && existing.ResponseBody != nil
			return nil
		})
		if err != nil {
			return err
		}
		if replay {
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// ---- Phase 2: store the response
		now := time.Now().UTC()
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)

		if err := db.Model(&models.IdempotencyKey{}).
			Where("key = ?", key).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   blob,
				"completed_at":    &now,
			}).Error; err != nil {
			// best-effort: don't break the successful response
			zap.L().Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
}

// requestHash is sha256 of method|path|body|user.
func requestHash(method, path string, body []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
