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

type IEventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	GetByCalendar(ctx context.Context, calendarID string) ([]models.Event, error)
	FindUpcomingWithReminders(ctx context.Context) ([]models.Event, error)
	AddMember(ctx context.Context, eventID string, member models.EventMember) error
	AcceptInvite(ctx context.Context, eventID string, userID primitive.ObjectID, email string) error
}

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) IEventRepository {
	return &EventRepository{
		collection: db.Collection("event"),
	}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", id, err)
	}

	var event models.Event
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}

	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", event.ID.Hex(), ErrNotFound)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", id, err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *EventRepository) GetByCalendar(ctx context.Context, calendarID string) ([]models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar id %q: %w", calendarID, err)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"calendarId": oid}, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list events by calendar: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

// FindUpcomingWithReminders returns every event that has not started yet and
// carries at least one reminder. The reconciler feeds on this.
func (r *EventRepository) FindUpcomingWithReminders(ctx context.Context) ([]models.Event, error) {
	filter := bson.M{
		"start":     bson.M{"$gt": time.Now().UTC()},
		"reminders": bson.M{"$exists": true, "$ne": bson.A{}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode upcoming events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) AddMember(ctx context.Context, eventID string, member models.EventMember) error {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", eventID, err)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"members": member},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add event member: %w", err)
	}

	return nil
}

// AcceptInvite flips a pending membership to accepted, matched either by the
// invitee's account id or by the e-mail the invite was sent to. The user id
// is set in the same update to cover email-only invitations.
func (r *EventRepository) AcceptInvite(ctx context.Context, eventID string, userID primitive.ObjectID, email string) error {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", eventID, err)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set": bson.M{
				"members.$[m].status": models.InviteAccepted,
				"members.$[m].user":   userID,
				"updatedAt":           time.Now().UTC(),
			},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{
					"m.status": models.InvitePending,
					"$or": bson.A{
						bson.M{"m.email": email},
						bson.M{"m.user": userID},
					},
				},
			},
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to accept event invite: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	return nil
}
