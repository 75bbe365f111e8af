package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscriptionKeys holds the client keys of a W3C push subscription.
type PushSubscriptionKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}

// PushSubscription is the opaque endpoint+keys blob a browser hands us on
// push registration. Stored per user, pruned when the push service reports
// the endpoint gone.
type PushSubscription struct {
	Endpoint string               `bson:"endpoint" json:"endpoint"`
	Keys     PushSubscriptionKeys `bson:"keys" json:"keys"`
}

type UserPreferences struct {
	Region                string `bson:"region" json:"region"`
	StartOfWeek           string `bson:"startOfWeek" json:"startOfWeek"`
	TimeFormat            string `bson:"timeFormat" json:"timeFormat"`
	TelegramNotifications bool   `bson:"telegramNotifications" json:"telegramNotifications"`
	EmailNotifications    bool   `bson:"emailNotifications" json:"emailNotifications"`
}

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	EmailVerified     bool               `bson:"emailVerified" json:"emailVerified"`
	Image             string             `bson:"image,omitempty" json:"image,omitempty"`
	City              string             `bson:"city,omitempty" json:"city,omitempty"`
	Preferences       UserPreferences    `bson:"preferences" json:"preferences"`
	TelegramChatID    string             `bson:"telegramChatId,omitempty" json:"-"`
	PushSubscriptions []PushSubscription `bson:"pushSubscriptions,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DefaultPreferences mirrors the defaults applied on user creation.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Region:      "UA",
		StartOfWeek: "monday",
		TimeFormat:  "24h",
	}
}
