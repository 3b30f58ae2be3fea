package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ByLCY/papyrus-billing/middlewares"
	"github.com/ByLCY/papyrus-billing/repository"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Auth serves registration and login.
type Auth struct {
	DB *gorm.DB
}

func (h *Auth) Register(c *fiber.Ctx) error {
	var req credentials
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := repository.NewUserStore(h.DB).Register(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, repository.ErrDuplicate) {
		return fiber.NewError(fiber.StatusConflict, "email already registered")
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    fiber.Map{"id": user.Id, "email": user.Email},
	})
}

func (h *Auth) Login(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}

	user, err := repository.NewUserStore(h.DB).FindByEmail(c.UserContext(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}
	if err := user.ComparePassword(req.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := middlewares.GenerateJWT(user.Id, user.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.Id,
			"email": user.Email,
		},
	})
}
