package controllers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ByLCY/papyrus-billing/database"
	"github.com/ByLCY/papyrus-billing/repository"
)

// Lookups serves the party (by GSTIN) and product (by name) autocomplete endpoints.
type Lookups struct {
	DB *gorm.DB
}

func (h *Lookups) GetParty(c *fiber.Ctx) error {
	party, err := repository.NewInvoiceStore(database.Conn(c, h.DB)).FindParty(c.UserContext(), c.Params("gst"))
	if err != nil {
		return err
	}
	return c.JSON(party)
}

func (h *Lookups) GetProduct(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("product_name"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product name")
	}
	product, err := repository.NewInvoiceStore(database.Conn(c, h.DB)).FindProduct(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(product)
}
