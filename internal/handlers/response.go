package handlers

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/query"
)

// ErrorHandler renders every error returned by a handler or middleware as
// {"success": false, "error": message}.
func ErrorHandler(logger *zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Server Error"

		var appErr *apperror.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.Status()
			if appErr.Kind != apperror.KindInternal {
				message = appErr.Message
			} else {
				if appErr.Message != "" {
					message = appErr.Message
				}
				logRequestError(logger, c, err)
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		default:
			logRequestError(logger, c, err)
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}

func logRequestError(logger *zerolog.Logger, c *fiber.Ctx, err error) {
	logger.Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondList[T any](c *fiber.Ctx, page query.Page[T]) error {
	var data any = page.Items
	if len(page.Fields) > 0 {
		selected, err := selectFields(page.Items, page.Fields)
		if err != nil {
			return err
		}
		data = selected
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"count":      len(page.Items),
		"total":      page.Total,
		"pagination": page.Pagination,
		"data":       data,
	})
}

// selectFields renders items keeping only their id and the given top-level
// keys. Unselected fields of a projected document decode as zero values and
// are dropped here.
func selectFields[T any](items []T, fields []string) ([]map[string]json.RawMessage, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	docs := []map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(fields)+1)
	keep["id"] = true
	for _, f := range fields {
		keep[f] = true
	}
	for _, doc := range docs {
		for key := range doc {
			if !keep[key] {
				delete(doc, key)
			}
		}
	}
	return docs, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	return nil
}
