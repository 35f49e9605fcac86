package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/services"
)

type BootcampHandler struct {
	bootcamps services.BootcampService
	photoURL  func(name string) string
}

// NewBootcampHandler creates the handler. photoURL maps a stored photo name
// to its public address and may be nil.
func NewBootcampHandler(bootcamps services.BootcampService, photoURL func(name string) string) *BootcampHandler {
	return &BootcampHandler{bootcamps: bootcamps, photoURL: photoURL}
}

func (h *BootcampHandler) List(c *fiber.Ctx) error {
	page, err := h.bootcamps.List(c.UserContext(), c.Queries())
	if err != nil {
		return err
	}
	return respondList(c, page)
}

func (h *BootcampHandler) Get(c *fiber.Ctx) error {
	bootcamp, err := h.bootcamps.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, bootcamp)
}

func (h *BootcampHandler) Create(c *fiber.Ctx) error {
	var in services.CreateBootcampInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	bootcamp, err := h.bootcamps.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, bootcamp)
}

func (h *BootcampHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateBootcampInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	bootcamp, err := h.bootcamps.Update(c.UserContext(), middleware.Actor(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, bootcamp)
}

func (h *BootcampHandler) Delete(c *fiber.Ctx) error {
	if err := h.bootcamps.Delete(c.UserContext(), middleware.Actor(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}

func (h *BootcampHandler) WithinRadius(c *fiber.Ctx) error {
	bootcamps, err := h.bootcamps.WithinRadius(c.UserContext(), c.Params("zipcode"), c.Params("distance"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"count":   len(bootcamps),
		"data":    bootcamps,
	})
}
