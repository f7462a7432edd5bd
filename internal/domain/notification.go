package domain

import (
	"context"
	"time"
)

// Notification is an event record shown to admins.
type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	GuestID    *string   `json:"guestId"`
	UnitNumber *string   `json:"unitNumber"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PushSubscription is a browser push endpoint owned by a user.
type PushSubscription struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Endpoint   string     `json:"endpoint"`
	P256dh     string     `json:"p256dh"`
	Auth       string     `json:"auth"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

// NotificationRepository is the port for admin notifications and push
// subscriptions. Lists are newest first.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n Notification) (*Notification, error)
	GetNotifications(ctx context.Context, p PageParams) (Page[Notification], error)
	GetUnreadNotifications(ctx context.Context, p PageParams) (Page[Notification], error)
	MarkNotificationRead(ctx context.Context, id string) (*Notification, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)
	DeleteNotification(ctx context.Context, id string) (bool, error)

	// SavePushSubscription inserts or replaces the subscription for its endpoint.
	SavePushSubscription(ctx context.Context, s PushSubscription) (*PushSubscription, error)
	GetPushSubscriptions(ctx context.Context) ([]PushSubscription, error)
	GetPushSubscriptionsByUser(ctx context.Context, userID string) ([]PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) (bool, error)
	TouchPushSubscription(ctx context.Context, endpoint string) error
}
