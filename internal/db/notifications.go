package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NotificationInput holds a new notification.
type NotificationInput struct {
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	RelatedID *uuid.UUID
}

const notificationColumns = `id, user_id, type, title, message, related_id, is_read, created_at`

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification stores an unread notification.
func (db *DB) CreateNotification(ctx context.Context, in NotificationInput) (*Notification, error) {
	n, err := scanNotification(db.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notificationColumns,
		in.UserID, in.Type, in.Title, in.Message, in.RelatedID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		 ORDER BY created_at DESC LIMIT $3`,
		userID, unreadOnly, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// CountUnreadNotifications returns how many unread notifications a user has.
func (db *DB) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one of the user's notifications as read. Returns
// ErrNotFound when it does not exist or belongs to someone else.
func (db *DB) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the user as read and
// returns how many changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}
