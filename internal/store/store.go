// Package store persists the last known server state to a local SQLite
// database, so the app can show something useful before the first poll
// resolves and across offline starts.
package store

import (
	"context"

	"github.com/roadassist/client/internal/model"
)

// Store is the offline cache interface.
type Store interface {
	// ReplaceRequests swaps the cached copy of one request list for a
	// fresh poll snapshot.
	ReplaceRequests(ctx context.Context, list string, requests []model.RepairRequest) error

	// GetRequests returns the cached copy of one request list, newest
	// first.
	GetRequests(ctx context.Context, list string) ([]model.RepairRequest, error)

	// UpsertNotifications inserts or replaces notification records.
	UpsertNotifications(ctx context.Context, notifications []model.Notification) error

	// GetNotifications returns cached notifications, newest first.
	GetNotifications(ctx context.Context) ([]model.Notification, error)

	// UpsertShops inserts or replaces shop records.
	UpsertShops(ctx context.Context, shops []model.MechanicShop) error

	// GetShops returns all cached shops.
	GetShops(ctx context.Context) ([]model.MechanicShop, error)

	// Clear wipes the cache, e.g. on logout.
	Clear(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
