package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/services"
)

const photoField = "file"

// UploadPhoto accepts a multipart image in the "file" field.
func (h *BootcampHandler) UploadPhoto(c *fiber.Ctx) error {
	var upload services.PhotoUpload

	header, err := c.FormFile(photoField)
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			return apperror.BadRequest("Problem reading uploaded file")
		}
		defer file.Close()

		upload = services.PhotoUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		}
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
		// An empty upload is rejected by the service once ownership is known.
	default:
		return apperror.BadRequest("Invalid multipart form")
	}

	name, err := h.bootcamps.UploadPhoto(c.UserContext(), middleware.Actor(c), c.Params("id"), upload)
	if err != nil {
		return err
	}

	body := fiber.Map{"success": true, "data": name}
	if h.photoURL != nil {
		body["url"] = h.photoURL(name)
	}
	return c.Status(fiber.StatusOK).JSON(body)
}
