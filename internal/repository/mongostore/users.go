package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/repository"
)

type UserRepo struct {
	users *mongo.Collection
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FullName     string             `bson:"full_name"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d userDoc) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond) // mongo keeps millisecond precision
	doc := userDoc{
		Email:        normalizeEmail(arg.Email),
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := r.users.InsertOne(ctx, doc)

	switch {
	case err == nil:
		doc.ID = res.InsertedID.(primitive.ObjectID)
		return doc.toModel(), nil
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, apperrors.ErrUserAlreadyExists
	default:
		return models.User{}, fmt.Errorf("%w: mongo insert: %v", apperrors.ErrStoreUnavailable, err)
	}
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// malformed id can't match any user
		return models.User{}, apperrors.ErrUserNotFound
	}

	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)

	switch {
	case err == nil:
		return doc.toModel(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("%w: mongo find: %v", apperrors.ErrStoreUnavailable, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
