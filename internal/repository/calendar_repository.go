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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ICalendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) error
	GetByID(ctx context.Context, id string) (*models.Calendar, error)
	AddMember(ctx context.Context, calendarID string, member models.CalendarMember) error
	AcceptInvite(ctx context.Context, calendarID string, userID primitive.ObjectID, email string) error
}

type CalendarRepository struct {
	collection *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) ICalendarRepository {
	return &CalendarRepository{
		collection: db.Collection("calendar"),
	}
}

func (r *CalendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now
	if calendar.ID.IsZero() {
		calendar.ID = primitive.NewObjectID()
	}
	if calendar.Color == "" {
		calendar.Color = "#4F46E5"
	}

	_, err := r.collection.InsertOne(ctx, calendar)
	if err != nil {
		return fmt.Errorf("failed to create calendar: %w", err)
	}

	return nil
}

func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar id %q: %w", id, err)
	}

	var calendar models.Calendar
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&calendar)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("calendar %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get calendar by id: %w", err)
	}

	return &calendar, nil
}

func (r *CalendarRepository) AddMember(ctx context.Context, calendarID string, member models.CalendarMember) error {
	oid, err := primitive.ObjectIDFromHex(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar id %q: %w", calendarID, err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"members": member},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add calendar member: %w", err)
	}

	return nil
}

func (r *CalendarRepository) AcceptInvite(ctx context.Context, calendarID string, userID primitive.ObjectID, email string) error {
	oid, err := primitive.ObjectIDFromHex(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar id %q: %w", calendarID, err)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set": bson.M{
				"members.$[m].status": models.InviteAccepted,
				"members.$[m].userId": userID,
				"updatedAt":           time.Now().UTC(),
			},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{
					"m.status": models.InvitePending,
					"$or": bson.A{
						bson.M{"m.email": email},
						bson.M{"m.userId": userID},
					},
				},
			},
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to accept calendar invite: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("calendar %s: %w", calendarID, ErrNotFound)
	}

	return nil
}
