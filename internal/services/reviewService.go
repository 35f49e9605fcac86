package services

import (
	"context"
	"errors"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/repository"
)

// ReviewService defines the review use cases. Every successful write is
// followed by a recompute of the parent bootcamp's average rating.
type ReviewService interface {
	List(ctx context.Context, bootcampID string, params map[string]string) (query.Page[models.Review], error)
	Get(ctx context.Context, id string) (*models.Review, error)
	// Create fails with Conflict when the caller already reviewed the bootcamp.
	Create(ctx context.Context, actor auth.Actor, in CreateReviewInput) (*models.Review, error)
	Update(ctx context.Context, actor auth.Actor, id string, in UpdateReviewInput) (*models.Review, error)
	Delete(ctx context.Context, actor auth.Actor, id string) error
}

type CreateReviewInput struct {
	Bootcamp string `json:"bootcamp" validate:"required"`
	Title    string `json:"title" validate:"required,max=100"`
	Text     string `json:"text" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=10"`
}

type UpdateReviewInput struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=100"`
	Text   *string `json:"text" validate:"omitempty,min=1"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=10"`
}

type reviewService struct {
	reviews    repository.ReviewRepository
	bootcamps  repository.BootcampRepository
	aggregates Aggregator
}

func NewReviewService(
	reviews repository.ReviewRepository,
	bootcamps repository.BootcampRepository,
	aggregates Aggregator,
) ReviewService {
	return &reviewService{
		reviews:    reviews,
		bootcamps:  bootcamps,
		aggregates: aggregates,
	}
}

func (s *reviewService) List(
	ctx context.Context,
	bootcampID string,
	params map[string]string,
) (query.Page[models.Review], error) {
	q, err := repository.ReviewSchema.Parse(params)
	if err != nil {
		return query.Page[models.Review]{}, err
	}

	if bootcampID != "" {
		oid, err := parseID("bootcamp", bootcampID)
		if err != nil {
			return query.Page[models.Review]{}, err
		}
		q = q.Scoped("bootcamp", oid)
	}

	items, total, err := s.reviews.List(ctx, q)
	if err != nil {
		return query.Page[models.Review]{}, serverErr(err, "list reviews")
	}
	return query.NewPage(q, items, total), nil
}

func (s *reviewService) Get(ctx context.Context, id string) (*models.Review, error) {
	oid, err := parseID("review", id)
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.Get(ctx, oid)
	if err != nil {
		return nil, lookupErr(err, "review", oid)
	}
	return review, nil
}

func (s *reviewService) Create(ctx context.Context, actor auth.Actor, in CreateReviewInput) (*models.Review, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	bootcampID, err := parseID("bootcamp", in.Bootcamp)
	if err != nil {
		return nil, err
	}
	if _, err := s.bootcamps.Get(ctx, bootcampID); err != nil {
		return nil, lookupErr(err, "bootcamp", bootcampID)
	}

	_, err = s.reviews.GetByBootcampAndUser(ctx, bootcampID, actor.ID)
	switch {
	case err == nil:
		return nil, alreadyReviewed(actor)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, serverErr(err, "look up review of %s", actor.ID.Hex())
	}

	review, err := s.reviews.Create(ctx, &models.Review{
		Title:    in.Title,
		Text:     in.Text,
		Rating:   in.Rating,
		Bootcamp: bootcampID,
		User:     actor.ID,
	})
	if err != nil {
		// The unique index catches a concurrent duplicate.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, alreadyReviewed(actor)
		}
		return nil, serverErr(err, "create review")
	}

	s.aggregates.RecomputeAverageRating(ctx, review.Bootcamp)
	return review, nil
}

func (s *reviewService) Update(
	ctx context.Context,
	actor auth.Actor,
	id string,
	in UpdateReviewInput,
) (*models.Review, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutate(actor, review) {
		return nil, apperror.Unauthorized("User %s is not authorized to update review %s", actor.ID.Hex(), review.ID.Hex())
	}

	updated, err := s.reviews.Update(ctx, review.ID, repository.UpdateReviewParams{
		Title:  in.Title,
		Text:   in.Text,
		Rating: in.Rating,
	})
	if err != nil {
		return nil, lookupErr(err, "review", review.ID)
	}

	s.aggregates.RecomputeAverageRating(ctx, updated.Bootcamp)
	return updated, nil
}

func (s *reviewService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanMutate(actor, review) {
		return apperror.Unauthorized("User %s is not authorized to delete review %s", actor.ID.Hex(), review.ID.Hex())
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return lookupErr(err, "review", review.ID)
	}

	s.aggregates.RecomputeAverageRating(ctx, review.Bootcamp)
	return nil
}

func alreadyReviewed(actor auth.Actor) error {
	return apperror.Conflict("User %s has already reviewed this bootcamp", actor.ID.Hex())
}
