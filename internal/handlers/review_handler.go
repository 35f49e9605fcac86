package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/services"
)

type ReviewHandler struct {
	reviews services.ReviewService
}

func NewReviewHandler(reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	page, err := h.reviews.List(c.UserContext(), c.Params("bootcampId"), c.Queries())
	if err != nil {
		return err
	}
	return respondList(c, page)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	review, err := h.reviews.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var in services.CreateReviewInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if id := c.Params("bootcampId"); id != "" {
		in.Bootcamp = id
	}

	review, err := h.reviews.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, review)
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateReviewInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	review, err := h.reviews.Update(c.UserContext(), middleware.Actor(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	if err := h.reviews.Delete(c.UserContext(), middleware.Actor(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}
