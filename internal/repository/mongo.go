package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/utils"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// collection wraps a *mongo.Collection with the typed helpers every
// repository needs.
type collection[T any] struct {
	coll *mongo.Collection
}

func newCollection[T any](db *mongo.Database, name string) collection[T] {
	return collection[T]{coll: db.Collection(name)}
}

func (c collection[T]) ensureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection[T]) insert(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	result, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID to ObjectID")
	}
	return id, nil
}

func (c collection[T]) findOne(ctx context.Context, filter any) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// list runs the page pipeline and the total count concurrently. populate
// stages run after the page window is cut.
func (c collection[T]) list(ctx context.Context, q query.Query, populate ...bson.D) ([]T, int64, error) {
	var (
		docs  []T
		total int64
	)

	err := utils.RunParallel(
		func() error {
			var err error
			docs, err = c.aggregate(ctx, listPipeline(q, populate))
			return err
		},
		func() error {
			var err error
			total, err = c.coll.CountDocuments(ctx, filterOf(q))
			return err
		},
	)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// findOnePopulated is findOne followed by populate stages.
func (c collection[T]) findOnePopulated(ctx context.Context, filter any, populate ...bson.D) (*T, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$limit", Value: 1}},
	}
	docs, err := c.aggregate(ctx, append(pipeline, populate...))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return &docs[0], nil
}

func (c collection[T]) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func filterOf(q query.Query) bson.M {
	if q.Filter == nil {
		return bson.M{}
	}
	return q.Filter
}

// listPipeline filters, sorts, windows and projects, in that order, and then
// appends populate.
func listPipeline(q query.Query, populate []bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: filterOf(q)}}}
	if len(q.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: q.Sort}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$skip", Value: q.StartIndex()}},
		bson.D{{Key: "$limit", Value: q.Limit}},
	)
	if len(q.Projection) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: q.Projection}})
	}
	return append(pipeline, populate...)
}

// lookupOne joins the document of collection from whose _id equals
// localField, keeping only fields, into the single embedded document as.
// as is left unset when nothing matches.
func lookupOne(from, localField, as string, fields ...string) []bson.D {
	project := make(bson.D, 0, len(fields))
	for _, f := range fields {
		project = append(project, bson.E{Key: f, Value: 1})
	}

	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{{Key: "ref", Value: "$" + localField}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$ref"}}}},
				}}},
				bson.D{{Key: "$project", Value: project}},
			}},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// lookupMany joins every document of collection from whose foreignField
// references this document's _id into the array as.
func lookupMany(from, foreignField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: foreignField},
			{Key: "as", Value: as},
		}}},
	}
}

func (c collection[T]) update(ctx context.Context, id primitive.ObjectID, update any) (*T, error) {
	var doc T
	err := c.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) updateOne(ctx context.Context, id primitive.ObjectID, update any) error {
	result, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c collection[T]) deleteOne(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c collection[T]) deleteMany(ctx context.Context, filter any) (int64, error) {
	result, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// average returns the mean of field over the documents matching filter. ok
// is false when nothing matches.
func (c collection[T]) average(ctx context.Context, filter bson.M, field string) (float64, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$" + field}}},
		}}},
	}

	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Avg *float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, false, err
	}
	if len(rows) == 0 || rows[0].Avg == nil {
		return 0, false, nil
	}
	return *rows[0].Avg, true, nil
}

// setOrUnset writes value to field, or removes the field when value is nil.
func setOrUnset(field string, value *float64) bson.M {
	if value == nil {
		return bson.M{"$unset": bson.M{field: ""}}
	}
	return bson.M{"$set": bson.M{field: *value}}
}

// Collections names every collection owned by this package.
var Collections = []string{bootcampCollection, courseCollection, reviewCollection, userCollection}
