package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CalendarRole string

const (
	CalendarRoleOwner  CalendarRole = "owner"
	CalendarRoleEditor CalendarRole = "editor"
	CalendarRoleReader CalendarRole = "reader"
)

type CalendarMember struct {
	UserID *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Role   CalendarRole        `bson:"role" json:"role"`
	Status InviteStatus        `bson:"status" json:"status"`
	Email  string              `bson:"email,omitempty" json:"email,omitempty"`
}

type Calendar struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Color       string             `bson:"color" json:"color"`
	IsPrivate   bool               `bson:"isPrivate" json:"isPrivate"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Members     []CalendarMember   `bson:"members,omitempty" json:"members,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsMember reports whether the user owns the calendar or appears in its
// member list regardless of invite status.
func (c *Calendar) IsMember(userID primitive.ObjectID) bool {
	if c.OwnerID == userID {
		return true
	}
	for _, m := range c.Members {
		if m.UserID != nil && *m.UserID == userID {
			return true
		}
	}
	return false
}
