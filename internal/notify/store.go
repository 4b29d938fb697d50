// Package notify keeps the user's notification feed and unread count
// consistent with the server. Mutations are optimistic: the local state
// changes first, and a failed server call is reconciled by refetching
// the server's truth rather than by undoing the local change by hand.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/model"
)

// Service is the slice of the API the store needs.
type Service interface {
	Notifications(ctx context.Context) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
}

// Store holds the notification feed. Safe for concurrent use: push
// events, poll results, and view commands all touch it.
type Store struct {
	service Service
	logger  *slog.Logger

	mu     sync.Mutex
	items  []model.Notification
	unread int
}

// NewStore creates an empty notification store backed by service.
func NewStore(service Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{service: service, logger: logger}
}

// Snapshot returns a copy of the feed (newest first) and the unread
// count.
func (s *Store) Snapshot() ([]model.Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out, s.unread
}

// Unread returns the current unread count.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Refetch replaces the feed and unread count wholesale with the
// server's state. This is both the poll path and the reconciliation
// path after a failed mutation.
func (s *Store) Refetch(ctx context.Context) error {
	items, err := s.service.Notifications(ctx)
	if err != nil {
		return err
	}
	count, err := s.service.UnreadCount(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.unread = count
	s.mu.Unlock()
	return nil
}

// ApplyPush prepends a pushed notification. Duplicates by ID are
// ignored so a poll racing a push cannot double-count.
func (s *Store) ApplyPush(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ID == n.ID {
			return
		}
	}

	s.items = append([]model.Notification{n}, s.items...)
	if !n.IsRead {
		s.unread++
	}
}

// MarkReadLocal flips one notification to read in local state only, so
// the caller can render the change before the server round-trip. It
// reports whether anything flipped; unknown or already-read IDs do not.
func (s *Store) MarkReadLocal(notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == notificationID {
			if s.items[i].IsRead {
				return false
			}
			s.items[i].IsRead = true
			if s.unread > 0 {
				s.unread--
			}
			return true
		}
	}
	return false
}

// ConfirmRead reports the flip to the server. A non-auth failure is
// reconciled by refetching the server's truth.
func (s *Store) ConfirmRead(ctx context.Context, notificationID string) error {
	if err := s.service.MarkRead(ctx, notificationID); err != nil {
		s.reconcile(ctx, err)
		return err
	}
	return nil
}

// MarkRead flags one notification as read: the optimistic local flip
// followed by the server confirm. Already-read notifications are a
// no-op.
func (s *Store) MarkRead(ctx context.Context, notificationID string) error {
	if !s.MarkReadLocal(notificationID) {
		return nil
	}
	return s.ConfirmRead(ctx, notificationID)
}

// MarkAllReadLocal flips the whole feed to read in local state only.
func (s *Store) MarkAllReadLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.unread = 0
}

// ConfirmAllRead reports the mark-all flip to the server, reconciling
// by refetch on a non-auth failure.
func (s *Store) ConfirmAllRead(ctx context.Context) error {
	if err := s.service.MarkAllRead(ctx); err != nil {
		s.reconcile(ctx, err)
		return err
	}
	return nil
}

// MarkAllRead flags the whole feed as read, optimistically.
func (s *Store) MarkAllRead(ctx context.Context) error {
	s.MarkAllReadLocal()
	return s.ConfirmAllRead(ctx)
}

// reconcile refetches after a failed mutation. Auth errors skip the
// refetch: the session is being torn down and another authenticated
// call would just fail the same way.
func (s *Store) reconcile(ctx context.Context, cause error) {
	if api.IsAuthError(cause) {
		return
	}
	s.logger.Warn("notification mutation failed, refetching", "error", cause)
	if err := s.Refetch(ctx); err != nil {
		s.logger.Warn("notification refetch failed", "error", err)
	}
}
