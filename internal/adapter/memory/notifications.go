package memory

import (
	"context"
	"sort"

	"capsule/internal/domain"
)

// CreateNotification records an admin notification.
func (db *DB) CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	defer db.lock(ctx)()
	n.ID = db.newID()
	n.IsRead = false
	n.CreatedAt = db.now()
	db.notifications[n.ID] = cloneNotification(n)
	return ptr(cloneNotification(n)), nil
}

// GetNotifications pages through all notifications.
func (db *DB) GetNotifications(ctx context.Context, p domain.PageParams) (domain.Page[domain.Notification], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.notificationsWhere(func(domain.Notification) bool { return true }), p), nil
}

// GetUnreadNotifications pages through unread notifications.
func (db *DB) GetUnreadNotifications(ctx context.Context, p domain.PageParams) (domain.Page[domain.Notification], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.notificationsWhere(func(n domain.Notification) bool { return !n.IsRead }), p), nil
}

// MarkNotificationRead marks one notification read.
func (db *DB) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	defer db.lock(ctx)()
	n, ok := db.notifications[id]
	if !ok {
		return nil, nil
	}
	n.IsRead = true
	db.notifications[id] = cloneNotification(n)
	return ptr(cloneNotification(n)), nil
}

// MarkAllNotificationsRead marks every unread notification read.
func (db *DB) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	defer db.lock(ctx)()
	count := 0
	for id, n := range db.notifications {
		if !n.IsRead {
			n.IsRead = true
			db.notifications[id] = cloneNotification(n)
			count++
		}
	}
	return count, nil
}

// DeleteNotification removes a notification.
func (db *DB) DeleteNotification(ctx context.Context, id string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.notifications[id]; !ok {
		return false, nil
	}
	delete(db.notifications, id)
	return true, nil
}

func (db *DB) notificationsWhere(match func(domain.Notification) bool) []domain.Notification {
	out := make([]domain.Notification, 0)
	for _, n := range db.notifications {
		if match(n) {
			out = append(out, cloneNotification(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- push subscriptions ---

// SavePushSubscription inserts or replaces the subscription for its endpoint.
func (db *DB) SavePushSubscription(ctx context.Context, s domain.PushSubscription) (*domain.PushSubscription, error) {
	defer db.lock(ctx)()
	if existing, ok := db.subscriptions[s.Endpoint]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		s.ID = db.newID()
		s.CreatedAt = db.now()
	}
	db.subscriptions[s.Endpoint] = cloneSubscription(s)
	return ptr(cloneSubscription(s)), nil
}

// GetPushSubscriptions lists every subscription.
func (db *DB) GetPushSubscriptions(ctx context.Context) ([]domain.PushSubscription, error) {
	defer db.lock(ctx)()
	return db.subscriptionsWhere(func(domain.PushSubscription) bool { return true }), nil
}

// GetPushSubscriptionsByUser lists the subscriptions owned by a user.
func (db *DB) GetPushSubscriptionsByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	defer db.lock(ctx)()
	return db.subscriptionsWhere(func(s domain.PushSubscription) bool { return s.UserID == userID }), nil
}

// DeletePushSubscription removes the subscription for an endpoint.
func (db *DB) DeletePushSubscription(ctx context.Context, endpoint string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.subscriptions[endpoint]; !ok {
		return false, nil
	}
	delete(db.subscriptions, endpoint)
	return true, nil
}

// TouchPushSubscription stamps the endpoint as just used.
func (db *DB) TouchPushSubscription(ctx context.Context, endpoint string) error {
	defer db.lock(ctx)()
	if s, ok := db.subscriptions[endpoint]; ok {
		s.LastUsedAt = ptr(db.now())
		db.subscriptions[endpoint] = cloneSubscription(s)
	}
	return nil
}

func (db *DB) subscriptionsWhere(match func(domain.PushSubscription) bool) []domain.PushSubscription {
	out := make([]domain.PushSubscription, 0)
	for _, s := range db.subscriptions {
		if match(s) {
			out = append(out, cloneSubscription(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
