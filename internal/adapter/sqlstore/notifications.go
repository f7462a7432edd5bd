package sqlstore

import (
	"context"
	"database/sql"

	"capsule/internal/domain"
)

const notificationColumns = "id, notification_type, title, message, guest_id, unit_number, is_read, created_at"

func scanNotification(r rowScanner) (domain.Notification, error) {
	var n domain.Notification
	var guestID, unit sql.NullString
	err := r.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &guestID, &unit, &n.IsRead, &n.CreatedAt)
	n.GuestID = stringPtr(guestID)
	n.UnitNumber = stringPtr(unit)
	n.CreatedAt = n.CreatedAt.UTC()
	return n, err
}

// CreateNotification records an admin notification.
func (d *DB) CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	n.ID = d.newID()
	n.IsRead = false
	n.CreatedAt = d.now()
	_, err := d.exec(ctx,
		"INSERT INTO admin_notifications ("+notificationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.Type, n.Title, n.Message, nullString(n.GuestID), nullString(n.UnitNumber), false, n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotifications pages through all notifications.
func (d *DB) GetNotifications(ctx context.Context, p domain.PageParams) (domain.Page[domain.Notification], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM admin_notifications",
		"SELECT "+notificationColumns+" FROM admin_notifications ORDER BY created_at DESC", scanNotification)
}

// GetUnreadNotifications pages through unread notifications.
func (d *DB) GetUnreadNotifications(ctx context.Context, p domain.PageParams) (domain.Page[domain.Notification], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM admin_notifications WHERE is_read = ?",
		"SELECT "+notificationColumns+" FROM admin_notifications WHERE is_read = ? ORDER BY created_at DESC",
		scanNotification, false)
}

// MarkNotificationRead marks one notification read.
func (d *DB) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := d.affected(ctx, "UPDATE admin_notifications SET is_read = ? WHERE id = ?", true, id)
	if err != nil || n == 0 {
		return nil, err
	}
	return one(d.queryRow(ctx, "SELECT "+notificationColumns+" FROM admin_notifications WHERE id = ?", id), scanNotification)
}

// MarkAllNotificationsRead marks every unread notification read.
func (d *DB) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	return d.affected(ctx, "UPDATE admin_notifications SET is_read = ? WHERE is_read = ?", true, false)
}

// DeleteNotification removes a notification.
func (d *DB) DeleteNotification(ctx context.Context, id string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM admin_notifications WHERE id = ?", id)
	return n > 0, err
}

// --- push subscriptions ---

const subscriptionColumns = "id, user_id, endpoint, p256dh, auth, created_at, last_used_at"

func scanSubscription(r rowScanner) (domain.PushSubscription, error) {
	var s domain.PushSubscription
	var lastUsed sql.NullTime
	err := r.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt, &lastUsed)
	s.CreatedAt = s.CreatedAt.UTC()
	s.LastUsedAt = timePtr(lastUsed)
	return s, err
}

// SavePushSubscription inserts or replaces the subscription for its endpoint.
// The original ID and creation time survive a replace.
func (d *DB) SavePushSubscription(ctx context.Context, s domain.PushSubscription) (*domain.PushSubscription, error) {
	_, err := d.exec(ctx,
		`INSERT INTO push_subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = excluded.user_id, p256dh = excluded.p256dh, auth = excluded.auth,
			last_used_at = excluded.last_used_at`,
		d.newID(), s.UserID, s.Endpoint, s.P256dh, s.Auth, d.now(), nullTime(s.LastUsedAt),
	)
	if err != nil {
		return nil, err
	}
	return one(d.queryRow(ctx, "SELECT "+subscriptionColumns+" FROM push_subscriptions WHERE endpoint = ?", s.Endpoint), scanSubscription)
}

// GetPushSubscriptions lists every subscription.
func (d *DB) GetPushSubscriptions(ctx context.Context) ([]domain.PushSubscription, error) {
	rows, err := d.query(ctx, "SELECT "+subscriptionColumns+" FROM push_subscriptions ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	return all(rows, scanSubscription)
}

// GetPushSubscriptionsByUser lists the subscriptions owned by a user.
func (d *DB) GetPushSubscriptionsByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	rows, err := d.query(ctx,
		"SELECT "+subscriptionColumns+" FROM push_subscriptions WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	return all(rows, scanSubscription)
}

// DeletePushSubscription removes the subscription for an endpoint.
func (d *DB) DeletePushSubscription(ctx context.Context, endpoint string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM push_subscriptions WHERE endpoint = ?", endpoint)
	return n > 0, err
}

// TouchPushSubscription stamps the endpoint as just used.
func (d *DB) TouchPushSubscription(ctx context.Context, endpoint string) error {
	_, err := d.exec(ctx, "UPDATE push_subscriptions SET last_used_at = ? WHERE endpoint = ?", d.now(), endpoint)
	return err
}
