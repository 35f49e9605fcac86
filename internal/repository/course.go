package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
)

// CourseRepository defines the interface for course persistence.
type CourseRepository interface {
	List(ctx context.Context, q query.Query) ([]models.Course, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, id primitive.ObjectID, params UpdateCourseParams) (*models.Course, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error)

	// AverageTuition returns the mean tuition of the bootcamp's courses;
	// ok is false when it has none.
	AverageTuition(ctx context.Context, bootcampID primitive.ObjectID) (avg float64, ok bool, err error)
}

type UpdateCourseParams struct {
	Title                *string       `bson:"title,omitempty"`
	Description          *string       `bson:"description,omitempty"`
	Weeks                *string       `bson:"weeks,omitempty"`
	Tuition              *float64      `bson:"tuition,omitempty"`
	MinimumSkill         *models.Skill `bson:"minimumSkill,omitempty"`
	ScholarshipAvailable *bool         `bson:"scholarshipAvailable,omitempty"`
	UpdatedAt            time.Time     `bson:"updatedAt"`
}

var CourseSchema = query.Schema{
	"tuition":              query.Number,
	"scholarshipAvailable": query.Bool,
	"bootcamp":             query.ObjectID,
	"user":                 query.ObjectID,
	"createdAt":            query.Time,
	"updatedAt":            query.Time,
}

const courseCollection = "courses"

type courseMongoRepository struct {
	courses collection[models.Course]
}

func NewCourseMongoRepository(ctx context.Context, db *mongo.Database) (CourseRepository, error) {
	r := &courseMongoRepository{courses: newCollection[models.Course](db, courseCollection)}

	err := r.courses.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "bootcamp", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *courseMongoRepository) List(ctx context.Context, q query.Query) ([]models.Course, int64, error) {
	return r.courses.list(ctx, q)
}

func (r *courseMongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	return r.courses.findOnePopulated(ctx, bson.M{"_id": id}, bootcampSummary...)
}

func (r *courseMongoRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	id, err := r.courses.insert(ctx, course)
	if err != nil {
		return nil, err
	}
	course.ID = id
	return course, nil
}

func (r *courseMongoRepository) Update(
	ctx context.Context,
	id primitive.ObjectID,
	params UpdateCourseParams,
) (*models.Course, error) {
	params.UpdatedAt = time.Now()
	return r.courses.update(ctx, id, bson.M{"$set": params})
}

func (r *courseMongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.courses.deleteOne(ctx, id)
}

func (r *courseMongoRepository) DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error) {
	return r.courses.deleteMany(ctx, bson.M{"bootcamp": bootcampID})
}

func (r *courseMongoRepository) AverageTuition(
	ctx context.Context,
	bootcampID primitive.ObjectID,
) (float64, bool, error) {
	return r.courses.average(ctx, bson.M{"bootcamp": bootcampID}, "tuition")
}
