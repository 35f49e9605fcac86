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

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	List(ctx context.Context, q query.Query) ([]models.User, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByResetToken finds the user holding the hashed reset token, provided
	// it has not expired at now.
	GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, params UpdateUserParams) (*models.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, hashedToken string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Name     *string      `bson:"name,omitempty"`
	Email    *string      `bson:"email,omitempty"`
	Role     *models.Role `bson:"role,omitempty"`
	Password *string      `bson:"password,omitempty"`
}

func (p UpdateUserParams) empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Password == nil
}

var UserSchema = query.Schema{
	"createdAt": query.Time,
}

const userCollection = "users"

type userMongoRepository struct {
	users collection[models.User]
}

func NewUserMongoRepository(ctx context.Context, db *mongo.Database) (UserRepository, error) {
	r := &userMongoRepository{users: newCollection[models.User](db, userCollection)}

	err := r.users.ensureIndexes(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *userMongoRepository) List(ctx context.Context, q query.Query) ([]models.User, int64, error) {
	return r.users.list(ctx, q)
}

func (r *userMongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.users.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.users.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetByResetToken(
	ctx context.Context,
	hashedToken string,
	now time.Time,
) (*models.User, error) {
	return r.users.findOne(ctx, bson.M{
		"resetPasswordToken":  hashedToken,
		"resetPasswordExpire": bson.M{"$gt": now},
	})
}

func (r *userMongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()

	id, err := r.users.insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

func (r *userMongoRepository) Update(
	ctx context.Context,
	id primitive.ObjectID,
	params UpdateUserParams,
) (*models.User, error) {
	if params.empty() {
		return r.Get(ctx, id)
	}
	return r.users.update(ctx, id, bson.M{"$set": params})
}

func (r *userMongoRepository) SetResetToken(
	ctx context.Context,
	id primitive.ObjectID,
	hashedToken string,
	expires time.Time,
) error {
	return r.users.updateOne(ctx, id, bson.M{"$set": bson.M{
		"resetPasswordToken":  hashedToken,
		"resetPasswordExpire": expires,
	}})
}

func (r *userMongoRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	return r.users.updateOne(ctx, id, bson.M{"$unset": bson.M{
		"resetPasswordToken":  "",
		"resetPasswordExpire": "",
	}})
}

func (r *userMongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.users.deleteOne(ctx, id)
}
