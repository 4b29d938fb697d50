package api

import (
	"context"
	"fmt"

	"github.com/roadassist/client/internal/model"
)

// Notifications returns the user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := c.Get(ctx, "/notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := c.Get(ctx, "/notifications/unread-count", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flags a single notification as read.
func (c *Client) MarkRead(ctx context.Context, notificationID string) error {
	return c.Put(ctx, fmt.Sprintf("/notifications/%s/read", notificationID), nil, nil)
}

// MarkAllRead flags every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.Put(ctx, "/notifications/read-all", nil, nil)
}
