package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
)

// ReviewRepository defines the interface for review persistence. Create
// returns ErrDuplicate when the (bootcamp, user) pair already has a review.
type ReviewRepository interface {
	List(ctx context.Context, q query.Query) ([]models.Review, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	GetByBootcampAndUser(ctx context.Context, bootcampID, userID primitive.ObjectID) (*models.Review, error)
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, params UpdateReviewParams) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error)
	AverageRating(ctx context.Context, bootcampID primitive.ObjectID) (avg float64, ok bool, err error)
}

type UpdateReviewParams struct {
	Title     *string   `bson:"title,omitempty"`
	Text      *string   `bson:"text,omitempty"`
	Rating    *int      `bson:"rating,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

var ReviewSchema = query.Schema{
	"rating":    query.Number,
	"bootcamp":  query.ObjectID,
	"user":      query.ObjectID,
	"createdAt": query.Time,
	"updatedAt": query.Time,
}

const reviewCollection = "reviews"

type reviewMongoRepository struct {
	reviews collection[models.Review]
}

func NewReviewMongoRepository(ctx context.Context, db *mongo.Database) (ReviewRepository, error) {
	r := &reviewMongoRepository{reviews: newCollection[models.Review](db, reviewCollection)}

	err := r.reviews.ensureIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bootcamp", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *reviewMongoRepository) List(ctx context.Context, q query.Query) ([]models.Review, int64, error) {
	return r.reviews.list(ctx, q)
}

func (r *reviewMongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	return r.reviews.findOnePopulated(ctx, bson.M{"_id": id}, bootcampSummary...)
}

func (r *reviewMongoRepository) GetByBootcampAndUser(
	ctx context.Context,
	bootcampID, userID primitive.ObjectID,
) (*models.Review, error) {
	return r.reviews.findOne(ctx, bson.M{"bootcamp": bootcampID, "user": userID})
}

func (r *reviewMongoRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	id, err := r.reviews.insert(ctx, review)
	if err != nil {
		return nil, err
	}
	review.ID = id
	return review, nil
}

func (r *reviewMongoRepository) Update(
	ctx context.Context,
	id primitive.ObjectID,
	params UpdateReviewParams,
) (*models.Review, error) {
	params.UpdatedAt = time.Now()
	return r.reviews.update(ctx, id, bson.M{"$set": params})
}

func (r *reviewMongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.reviews.deleteOne(ctx, id)
}

func (r *reviewMongoRepository) DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error) {
	return r.reviews.deleteMany(ctx, bson.M{"bootcamp": bootcampID})
}

func (r *reviewMongoRepository) AverageRating(
	ctx context.Context,
	bootcampID primitive.ObjectID,
) (float64, bool, error) {
	return r.reviews.average(ctx, bson.M{"bootcamp": bootcampID}, "rating")
}
