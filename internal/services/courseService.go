package services

import (
	"context"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/repository"
)

// CourseService defines the course use cases. Every successful write is
// followed by a recompute of the parent bootcamp's average cost.
type CourseService interface {
	// List returns courses, restricted to one bootcamp when bootcampID is set.
	List(ctx context.Context, bootcampID string, params map[string]string) (query.Page[models.Course], error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, actor auth.Actor, in CreateCourseInput) (*models.Course, error)
	Update(ctx context.Context, actor auth.Actor, id string, in UpdateCourseInput) (*models.Course, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type CreateCourseInput struct {
	Bootcamp             string       `json:"bootcamp" validate:"required"`
	Title                string       `json:"title" validate:"required,max=100"`
	Description          string       `json:"description" validate:"required"`
	Weeks                string       `json:"weeks" validate:"required"`
	Tuition              float64      `json:"tuition" validate:"required,gt=0"`
	MinimumSkill         models.Skill `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool         `json:"scholarshipAvailable"`
}

type UpdateCourseInput struct {
	Title                *string       `json:"title" validate:"omitempty,min=1,max=100"`
	Description          *string       `json:"description" validate:"omitempty,min=1"`
	Weeks                *string       `json:"weeks" validate:"omitempty,min=1"`
	Tuition              *float64      `json:"tuition" validate:"omitempty,gt=0"`
	MinimumSkill         *models.Skill `json:"minimumSkill" validate:"omitempty,oneof=beginner intermediate advanced"`
	ScholarshipAvailable *bool         `json:"scholarshipAvailable"`
}

type courseService struct {
	courses    repository.CourseRepository
	bootcamps  repository.BootcampRepository
	aggregates Aggregator
}

func NewCourseService(
	courses repository.CourseRepository,
	bootcamps repository.BootcampRepository,
	aggregates Aggregator,
) CourseService {
	return &courseService{
		courses:    courses,
		bootcamps:  bootcamps,
		aggregates: aggregates,
	}
}

func (s *courseService) List(
	ctx context.Context,
	bootcampID string,
	params map[string]string,
) (query.Page[models.Course], error) {
	q, err := repository.CourseSchema.Parse(params)
	if err != nil {
		return query.Page[models.Course]{}, err
	}

	if bootcampID != "" {
		oid, err := parseID("bootcamp", bootcampID)
		if err != nil {
			return query.Page[models.Course]{}, err
		}
		q = q.Scoped("bootcamp", oid)
	}

	items, total, err := s.courses.List(ctx, q)
	if err != nil {
		return query.Page[models.Course]{}, serverErr(err, "list courses")
	}
	return query.NewPage(q, items, total), nil
}

func (s *courseService) Get(ctx context.Context, id string) (*models.Course, error) {
	oid, err := parseID("course", id)
	if err != nil {
		return nil, err
	}

	course, err := s.courses.Get(ctx, oid)
	if err != nil {
		return nil, lookupErr(err, "course", oid)
	}
	return course, nil
}

func (s *courseService) Create(ctx context.Context, actor auth.Actor, in CreateCourseInput) (*models.Course, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	bootcampID, err := parseID("bootcamp", in.Bootcamp)
	if err != nil {
		return nil, err
	}
	bootcamp, err := s.bootcamps.Get(ctx, bootcampID)
	if err != nil {
		return nil, lookupErr(err, "bootcamp", bootcampID)
	}
	if !auth.CanMutate(actor, bootcamp) {
		return nil, apperror.Unauthorized(
			"User %s is not authorized to add a course to bootcamp %s", actor.ID.Hex(), bootcamp.ID.Hex())
	}

	course, err := s.courses.Create(ctx, &models.Course{
		Title:                in.Title,
		Description:          in.Description,
		Weeks:                in.Weeks,
		Tuition:              in.Tuition,
		MinimumSkill:         in.MinimumSkill,
		ScholarshipAvailable: in.ScholarshipAvailable,
		Bootcamp:             bootcamp.ID,
		User:                 actor.ID,
	})
	if err != nil {
		return nil, serverErr(err, "create course")
	}

	s.aggregates.RecomputeAverageCost(ctx, course.Bootcamp)
	return course, nil
}

func (s *courseService) Update(
	ctx context.Context,
	actor auth.Actor,
	id string,
	in UpdateCourseInput,
) (*models.Course, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(actor, course) {
		return nil, apperror.Unauthorized("User %s is not authorized to update course %s", actor.ID.Hex(), course.ID.Hex())
	}

	updated, err := s.courses.Update(ctx, course.ID, repository.UpdateCourseParams{
		Title:                in.Title,
		Description:          in.Description,
		Weeks:                in.Weeks,
		Tuition:              in.Tuition,
		MinimumSkill:         in.MinimumSkill,
		ScholarshipAvailable: in.ScholarshipAvailable,
	})
	if err != nil {
		return nil, lookupErr(err, "course", course.ID)
	}

	s.aggregates.RecomputeAverageCost(ctx, updated.Bootcamp)
	return updated, nil
}

func (s *courseService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	course, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanMutate(actor, course) {
		return apperror.Unauthorized("User %s is not authorized to delete course %s", actor.ID.Hex(), course.ID.Hex())
	}

	if err := s.courses.Delete(ctx, course.ID); err != nil {
		return lookupErr(err, "course", course.ID)
	}

	s.aggregates.RecomputeAverageCost(ctx, course.Bootcamp)
	return nil
}
