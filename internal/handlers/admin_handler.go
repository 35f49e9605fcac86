package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/services"
)

// AdminHandler manages user accounts. Every route is admin only.
type AdminHandler struct {
	users services.UserService
}

func NewAdminHandler(users services.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, err := h.users.List(c.UserContext(), c.Queries())
	if err != nil {
		return err
	}
	return respondList(c, page)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var in services.CreateUserInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, user)
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var in services.UpdateUserInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}
