package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/geocoder"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/repository"
	"github.com/arzan03/devcamper/internal/utils"
)

// BootcampService defines the bootcamp use cases.
type BootcampService interface {
	List(ctx context.Context, params map[string]string) (query.Page[models.Bootcamp], error)
	Get(ctx context.Context, id string) (*models.Bootcamp, error)
	Create(ctx context.Context, actor auth.Actor, in CreateBootcampInput) (*models.Bootcamp, error)
	Update(ctx context.Context, actor auth.Actor, id string, in UpdateBootcampInput) (*models.Bootcamp, error)
	// Delete removes the bootcamp together with its courses, reviews and photo.
	Delete(ctx context.Context, actor auth.Actor, id string) error
	WithinRadius(ctx context.Context, zipcode, distance string) ([]models.Bootcamp, error)
	// UploadPhoto stores an image for the bootcamp and returns its file name.
	UploadPhoto(ctx context.Context, actor auth.Actor, id string, upload PhotoUpload) (string, error)
}

type CreateBootcampInput struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	Website       string   `json:"website" validate:"omitempty,url"`
	Phone         string   `json:"phone" validate:"omitempty,max=20"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"required"`
	Careers       []string `json:"careers" validate:"required,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       bool     `json:"housing"`
	JobAssistance bool     `json:"jobAssistance"`
	JobGuarantee  bool     `json:"jobGuarantee"`
	AcceptGi      bool     `json:"acceptGi"`
}

type UpdateBootcampInput struct {
	Name          *string   `json:"name" validate:"omitempty,min=1,max=50"`
	Description   *string   `json:"description" validate:"omitempty,min=1,max=500"`
	Website       *string   `json:"website" validate:"omitempty,url"`
	Phone         *string   `json:"phone" validate:"omitempty,max=20"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	Address       *string   `json:"address" validate:"omitempty,min=1"`
	Careers       *[]string `json:"careers" validate:"omitempty,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	Housing       *bool     `json:"housing"`
	JobAssistance *bool     `json:"jobAssistance"`
	JobGuarantee  *bool     `json:"jobGuarantee"`
	AcceptGi      *bool     `json:"acceptGi"`
}

// PhotoUpload is an uploaded file as received from the client.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type bootcampService struct {
	bootcamps     repository.BootcampRepository
	courses       repository.CourseRepository
	reviews       repository.ReviewRepository
	geocoder      Geocoder
	photos        PhotoStore
	maxPhotoBytes int64
	logger        *zerolog.Logger
}

func NewBootcampService(
	bootcamps repository.BootcampRepository,
	courses repository.CourseRepository,
	reviews repository.ReviewRepository,
	geo Geocoder,
	photos PhotoStore,
	uploadCfg config.UploadConfig,
	logger *zerolog.Logger,
) BootcampService {
	return &bootcampService{
		bootcamps:     bootcamps,
		courses:       courses,
		reviews:       reviews,
		geocoder:      geo,
		photos:        photos,
		maxPhotoBytes: uploadCfg.MaxFileSize,
		logger:        logger,
	}
}

func (s *bootcampService) List(ctx context.Context, params map[string]string) (query.Page[models.Bootcamp], error) {
	q, err := repository.BootcampSchema.Parse(params)
	if err != nil {
		return query.Page[models.Bootcamp]{}, err
	}

	items, total, err := s.bootcamps.List(ctx, q)
	if err != nil {
		return query.Page[models.Bootcamp]{}, serverErr(err, "list bootcamps")
	}
	return query.NewPage(q, items, total), nil
}

func (s *bootcampService) Get(ctx context.Context, id string) (*models.Bootcamp, error) {
	oid, err := parseID("bootcamp", id)
	if err != nil {
		return nil, err
	}

	bootcamp, err := s.bootcamps.Get(ctx, oid)
	if err != nil {
		return nil, lookupErr(err, "bootcamp", oid)
	}
	return bootcamp, nil
}

func (s *bootcampService) Create(
	ctx context.Context,
	actor auth.Actor,
	in CreateBootcampInput,
) (*models.Bootcamp, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		owned, err := s.bootcamps.CountByOwner(ctx, actor.ID)
		if err != nil {
			return nil, serverErr(err, "count bootcamps of %s", actor.ID.Hex())
		}
		if owned > 0 {
			return nil, apperror.Conflict("The user with ID %s has already published a bootcamp", actor.ID.Hex())
		}
	}

	location, err := s.geocode(ctx, in.Address)
	if err != nil {
		return nil, err
	}

	bootcamp, err := s.bootcamps.Create(ctx, &models.Bootcamp{
		Name:          in.Name,
		Slug:          slug.Make(in.Name),
		Description:   in.Description,
		Website:       in.Website,
		Phone:         in.Phone,
		Email:         in.Email,
		Location:      location,
		Careers:       in.Careers,
		Photo:         models.DefaultPhoto,
		Housing:       in.Housing,
		JobAssistance: in.JobAssistance,
		JobGuarantee:  in.JobGuarantee,
		AcceptGi:      in.AcceptGi,
		User:          actor.ID,
	})
	if err != nil {
		return nil, serverErr(err, "create bootcamp")
	}
	return bootcamp, nil
}

func (s *bootcampService) Update(
	ctx context.Context,
	actor auth.Actor,
	id string,
	in UpdateBootcampInput,
) (*models.Bootcamp, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	bootcamp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(actor, bootcamp) {
		return nil, apperror.Unauthorized("User %s is not authorized to update this bootcamp", actor.ID.Hex())
	}

	params := repository.UpdateBootcampParams{
		Name:          in.Name,
		Description:   in.Description,
		Website:       in.Website,
		Phone:         in.Phone,
		Email:         in.Email,
		Careers:       in.Careers,
		Housing:       in.Housing,
		JobAssistance: in.JobAssistance,
		JobGuarantee:  in.JobGuarantee,
		AcceptGi:      in.AcceptGi,
	}
	if in.Name != nil {
		newSlug := slug.Make(*in.Name)
		params.Slug = &newSlug
	}
	if in.Address != nil {
		location, err := s.geocode(ctx, *in.Address)
		if err != nil {
			return nil, err
		}
		params.Location = location
	}

	updated, err := s.bootcamps.Update(ctx, bootcamp.ID, params)
	if err != nil {
		return nil, lookupErr(err, "bootcamp", bootcamp.ID)
	}
	return updated, nil
}

func (s *bootcampService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	bootcamp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanMutate(actor, bootcamp) {
		return apperror.Unauthorized("User %s is not authorized to delete this bootcamp", actor.ID.Hex())
	}

	// Children go first so a failure leaves the bootcamp in place to retry.
	err = utils.RunParallel(
		func() error {
			_, err := s.courses.DeleteByBootcamp(ctx, bootcamp.ID)
			return err
		},
		func() error {
			_, err := s.reviews.DeleteByBootcamp(ctx, bootcamp.ID)
			return err
		},
	)
	if err != nil {
		return serverErr(err, "delete children of bootcamp %s", bootcamp.ID.Hex())
	}

	if err := s.bootcamps.Delete(ctx, bootcamp.ID); err != nil {
		return lookupErr(err, "bootcamp", bootcamp.ID)
	}

	if bootcamp.Photo != "" && bootcamp.Photo != models.DefaultPhoto {
		if err := s.photos.Remove(ctx, bootcamp.Photo); err != nil {
			s.logger.Warn().Err(err).Str("photo", bootcamp.Photo).Msg("failed to remove bootcamp photo")
		}
	}
	return nil
}

func (s *bootcampService) WithinRadius(ctx context.Context, zipcode, distance string) ([]models.Bootcamp, error) {
	miles, err := strconv.ParseFloat(distance, 64)
	if err != nil || miles < 0 {
		return nil, apperror.BadRequest("Distance must be a non-negative number of miles, got %q", distance)
	}

	location, err := s.geocode(ctx, zipcode)
	if err != nil {
		return nil, err
	}

	lng, lat := location.Coordinates[0], location.Coordinates[1]
	bootcamps, err := s.bootcamps.WithinRadius(ctx, lng, lat, miles/EarthRadiusMiles)
	if err != nil {
		return nil, serverErr(err, "radius search around %s", zipcode)
	}
	return bootcamps, nil
}

func (s *bootcampService) UploadPhoto(
	ctx context.Context,
	actor auth.Actor,
	id string,
	upload PhotoUpload,
) (string, error) {
	bootcamp, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !auth.CanMutate(actor, bootcamp) {
		return "", apperror.Unauthorized("User %s is not authorized to update this bootcamp", actor.ID.Hex())
	}

	if upload.Content == nil {
		return "", apperror.BadRequest("Please upload a file")
	}
	tooLarge := apperror.BadRequest("Please upload an image less than %s", humanize.Bytes(uint64(s.maxPhotoBytes)))
	if upload.Size > s.maxPhotoBytes {
		return "", tooLarge
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxPhotoBytes+1))
	if err != nil {
		return "", apperror.BadRequest("Problem reading uploaded file")
	}
	if int64(len(data)) > s.maxPhotoBytes {
		return "", tooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", apperror.BadRequest("Please upload an image file")
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(upload.Filename))
	}
	name := fmt.Sprintf("photo_%s%s", bootcamp.ID.Hex(), ext)

	if err := s.photos.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return "", apperror.Internal("Problem with file upload", err)
	}

	if err := s.bootcamps.SetPhoto(ctx, bootcamp.ID, name); err != nil {
		return "", lookupErr(err, "bootcamp", bootcamp.ID)
	}

	if old := bootcamp.Photo; old != name && old != "" && old != models.DefaultPhoto {
		if err := s.photos.Remove(ctx, old); err != nil {
			s.logger.Warn().Err(err).Str("photo", old).Msg("failed to remove replaced bootcamp photo")
		}
	}
	return name, nil
}

func (s *bootcampService) geocode(ctx context.Context, address string) (*models.Location, error) {
	location, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geocoder.ErrNoResults) {
			return nil, apperror.BadRequest("Could not find a location for %q", address)
		}
		return nil, apperror.Internal("Geocoding failed", err)
	}
	if location == nil || len(location.Coordinates) != 2 {
		return nil, apperror.BadRequest("Could not find a location for %q", address)
	}
	return location, nil
}
