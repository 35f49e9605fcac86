package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/mailer"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/repository"
)

// EarthRadiusMiles converts a distance in miles to radians for
// $centerSphere queries.
const EarthRadiusMiles = 3963.0

// PhotoStore persists uploaded bootcamp photos.
type PhotoStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, name string) error
}

// Geocoder resolves a postal code or address to a location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

// Mailer delivers email.
type Mailer interface {
	Send(email mailer.Email) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks in against its validate tags and reports the first
// violation as a BadRequest.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperror.BadRequest("Please add a %s", fe.Field())
		case "email":
			return apperror.BadRequest("Please add a valid %s", fe.Field())
		case "oneof":
			return apperror.BadRequest("%s must be one of: %s", fe.Field(), fe.Param())
		case "min", "gte":
			return apperror.BadRequest("%s must be at least %s", fe.Field(), fe.Param())
		case "max", "lte":
			return apperror.BadRequest("%s must be at most %s", fe.Field(), fe.Param())
		default:
			return apperror.BadRequest("%s is invalid", fe.Field())
		}
	}
	return apperror.BadRequest("Invalid input: %v", err)
}

// parseID decodes a hex id. A malformed id cannot resolve to a document, so
// it is reported as NotFound.
func parseID(kind, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound("No %s with id of %s", kind, raw)
	}
	return id, nil
}

// lookupErr translates a repository lookup failure.
func lookupErr(err error, kind string, id any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("No %s with id of %v", kind, hexOf(id))
	}
	return apperror.Internal("Server Error", fmt.Errorf("load %s %v: %w", kind, hexOf(id), err))
}

func hexOf(id any) any {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return id
}

func serverErr(err error, format string, args ...any) error {
	return apperror.Internal("Server Error", fmt.Errorf(format+": %w", append(args, err)...))
}
