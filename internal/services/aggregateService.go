package services

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/repository"
)

const recomputeTimeout = 10 * time.Second

// Aggregator recomputes a bootcamp's derived fields from the full current
// set of its courses and reviews. It is invoked after a write has
// committed; its failures are logged and counted but never returned to the
// caller of that write.
type Aggregator interface {
	RecomputeAverageCost(ctx context.Context, bootcampID primitive.ObjectID)
	RecomputeAverageRating(ctx context.Context, bootcampID primitive.ObjectID)
	// Failures is the number of recomputations that failed since start.
	Failures() uint64
}

type aggregator struct {
	bootcamps repository.BootcampRepository
	courses   repository.CourseRepository
	reviews   repository.ReviewRepository
	logger    *zerolog.Logger
	failures  atomic.Uint64
}

func NewAggregator(
	bootcamps repository.BootcampRepository,
	courses repository.CourseRepository,
	reviews repository.ReviewRepository,
	logger *zerolog.Logger,
) Aggregator {
	return &aggregator{
		bootcamps: bootcamps,
		courses:   courses,
		reviews:   reviews,
		logger:    logger,
	}
}

// RoundCost rounds a mean tuition up to the nearest multiple of 10.
func RoundCost(mean float64) float64 {
	return math.Ceil(mean/10) * 10
}

func (a *aggregator) RecomputeAverageCost(ctx context.Context, bootcampID primitive.ObjectID) {
	ctx, cancel := detached(ctx)
	defer cancel()

	mean, ok, err := a.courses.AverageTuition(ctx, bootcampID)
	if err != nil {
		a.fail(err, "averageCost", bootcampID)
		return
	}

	var cost *float64
	if ok {
		rounded := RoundCost(mean)
		cost = &rounded
	}

	if err := a.bootcamps.SetAverageCost(ctx, bootcampID, cost); err != nil {
		a.fail(err, "averageCost", bootcampID)
	}
}

func (a *aggregator) RecomputeAverageRating(ctx context.Context, bootcampID primitive.ObjectID) {
	ctx, cancel := detached(ctx)
	defer cancel()

	mean, ok, err := a.reviews.AverageRating(ctx, bootcampID)
	if err != nil {
		a.fail(err, "averageRating", bootcampID)
		return
	}

	var rating *float64
	if ok {
		rating = &mean
	}

	if err := a.bootcamps.SetAverageRating(ctx, bootcampID, rating); err != nil {
		a.fail(err, "averageRating", bootcampID)
	}
}

func (a *aggregator) Failures() uint64 {
	return a.failures.Load()
}

func (a *aggregator) fail(err error, field string, bootcampID primitive.ObjectID) {
	a.failures.Add(1)
	a.logger.Error().
		Err(err).
		Str("aggregate", field).
		Str("bootcamp_id", bootcampID.Hex()).
		Msg("failed to recompute bootcamp aggregate")
}

// detached keeps the request's values but not its cancellation: the write
// that triggered the recompute has already committed.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recomputeTimeout)
}
