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

// BootcampRepository defines the interface for bootcamp persistence.
type BootcampRepository interface {
	List(ctx context.Context, q query.Query) ([]models.Bootcamp, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error)
	CountByOwner(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Create(ctx context.Context, bootcamp *models.Bootcamp) (*models.Bootcamp, error)
	Update(ctx context.Context, id primitive.ObjectID, params UpdateBootcampParams) (*models.Bootcamp, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetAverageCost(ctx context.Context, id primitive.ObjectID, cost *float64) error
	SetAverageRating(ctx context.Context, id primitive.ObjectID, rating *float64) error
	SetPhoto(ctx context.Context, id primitive.ObjectID, photo string) error
	WithinRadius(ctx context.Context, lng, lat, radians float64) ([]models.Bootcamp, error)
}

// UpdateBootcampParams holds the client-writable fields. Nil fields are left
// untouched.
type UpdateBootcampParams struct {
	Name          *string          `bson:"name,omitempty"`
	Slug          *string          `bson:"slug,omitempty"`
	Description   *string          `bson:"description,omitempty"`
	Website       *string          `bson:"website,omitempty"`
	Phone         *string          `bson:"phone,omitempty"`
	Email         *string          `bson:"email,omitempty"`
	Location      *models.Location `bson:"location,omitempty"`
	Careers       *[]string        `bson:"careers,omitempty"`
	Housing       *bool            `bson:"housing,omitempty"`
	JobAssistance *bool            `bson:"jobAssistance,omitempty"`
	JobGuarantee  *bool            `bson:"jobGuarantee,omitempty"`
	AcceptGi      *bool            `bson:"acceptGi,omitempty"`
	UpdatedAt     time.Time        `bson:"updatedAt"`
}

// BootcampSchema types the filterable bootcamp fields.
var BootcampSchema = query.Schema{
	"averageCost":   query.Number,
	"averageRating": query.Number,
	"housing":       query.Bool,
	"jobAssistance": query.Bool,
	"jobGuarantee":  query.Bool,
	"acceptGi":      query.Bool,
	"user":          query.ObjectID,
	"createdAt":     query.Time,
	"updatedAt":     query.Time,
}

const bootcampCollection = "bootcamps"

// bootcampSummary embeds a bootcamp's name and description into a course or
// review.
var bootcampSummary = lookupOne(bootcampCollection, "bootcamp", "bootcampInfo", "name", "description")

// bootcampCourses embeds a bootcamp's courses.
var bootcampCourses = lookupMany(courseCollection, "bootcamp", "courses")

type bootcampMongoRepository struct {
	bootcamps collection[models.Bootcamp]
}

// NewBootcampMongoRepository creates the repository and its indexes.
func NewBootcampMongoRepository(ctx context.Context, db *mongo.Database) (BootcampRepository, error) {
	r := &bootcampMongoRepository{bootcamps: newCollection[models.Bootcamp](db, bootcampCollection)}

	err := r.bootcamps.ensureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *bootcampMongoRepository) List(ctx context.Context, q query.Query) ([]models.Bootcamp, int64, error) {
	return r.bootcamps.list(ctx, q, bootcampCourses...)
}

func (r *bootcampMongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error) {
	return r.bootcamps.findOne(ctx, bson.M{"_id": id})
}

func (r *bootcampMongoRepository) CountByOwner(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.bootcamps.coll.CountDocuments(ctx, bson.M{"user": userID})
}

func (r *bootcampMongoRepository) Create(ctx context.Context, bootcamp *models.Bootcamp) (*models.Bootcamp, error) {
	now := time.Now()
	bootcamp.CreatedAt = now
	bootcamp.UpdatedAt = now

	id, err := r.bootcamps.insert(ctx, bootcamp)
	if err != nil {
		return nil, err
	}
	bootcamp.ID = id
	return bootcamp, nil
}

func (r *bootcampMongoRepository) Update(
	ctx context.Context,
	id primitive.ObjectID,
	params UpdateBootcampParams,
) (*models.Bootcamp, error) {
	params.UpdatedAt = time.Now()
	return r.bootcamps.update(ctx, id, bson.M{"$set": params})
}

func (r *bootcampMongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.bootcamps.deleteOne(ctx, id)
}

func (r *bootcampMongoRepository) SetAverageCost(ctx context.Context, id primitive.ObjectID, cost *float64) error {
	return r.bootcamps.updateOne(ctx, id, setOrUnset("averageCost", cost))
}

func (r *bootcampMongoRepository) SetAverageRating(ctx context.Context, id primitive.ObjectID, rating *float64) error {
	return r.bootcamps.updateOne(ctx, id, setOrUnset("averageRating", rating))
}

func (r *bootcampMongoRepository) SetPhoto(ctx context.Context, id primitive.ObjectID, photo string) error {
	return r.bootcamps.updateOne(ctx, id, bson.M{"$set": bson.M{"photo": photo, "updatedAt": time.Now()}})
}

// WithinRadius returns bootcamps whose location lies inside the spherical
// cap centred on (lng, lat) with the given angular radius.
func (r *bootcampMongoRepository) WithinRadius(
	ctx context.Context,
	lng, lat, radians float64,
) ([]models.Bootcamp, error) {
	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, radians},
			},
		},
	}
	return r.bootcamps.find(ctx, filter)
}
