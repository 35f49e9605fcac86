package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/services"
)

type CourseHandler struct {
	courses services.CourseService
}

func NewCourseHandler(courses services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List serves both /courses and /bootcamps/:bootcampId/courses.
func (h *CourseHandler) List(c *fiber.Ctx) error {
	page, err := h.courses.List(c.UserContext(), c.Params("bootcampId"), c.Queries())
	if err != nil {
		return err
	}
	return respondList(c, page)
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
	course, err := h.courses.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, course)
}

// Create takes the bootcamp from the path when nested, else from the body.
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var in services.CreateCourseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if id := c.Params("bootcampId"); id != "" {
		in.Bootcamp = id
	}

	course, err := h.courses.Create(c.UserContext(), middleware.Actor(c), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, course)
}

func (h *CourseHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateCourseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	course, err := h.courses.Update(c.UserContext(), middleware.Actor(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, course)
}

func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	if err := h.courses.Delete(c.UserContext(), middleware.Actor(c), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{})
}
