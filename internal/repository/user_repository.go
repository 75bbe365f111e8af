package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

type IUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AddPushSubscription(ctx context.Context, userID string, sub models.PushSubscription) error
	RemovePushSubscription(ctx context.Context, userID, endpoint string) error
	RemovePushSubscriptions(ctx context.Context, userID string, endpoints []string) error
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) IUserRepository {
	return &UserRepository{
		collection: db.Collection("user"),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// AddPushSubscription stores a push subscription unless the same endpoint is
// already registered for the user.
func (r *UserRepository) AddPushSubscription(ctx context.Context, userID string, sub models.PushSubscription) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "pushSubscriptions.endpoint": bson.M{"$ne": sub.Endpoint}},
		bson.M{
			"$push": bson.M{"pushSubscriptions": sub},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add push subscription: %w", err)
	}

	return nil
}

func (r *UserRepository) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	return r.RemovePushSubscriptions(ctx, userID, []string{endpoint})
}

// RemovePushSubscriptions atomically pulls every subscription whose endpoint
// is listed.
func (r *UserRepository) RemovePushSubscriptions(ctx context.Context, userID string, endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$pull": bson.M{"pushSubscriptions": bson.M{"endpoint": bson.M{"$in": endpoints}}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove push subscriptions: %w", err)
	}

	return nil
}
