package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/roadassist/client/internal/keys"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/notify"
	"github.com/roadassist/client/internal/ui/notifpanel"
)

// countingService records mark-read traffic so tests can tell the local
// flip apart from the server confirm.
type countingService struct {
	markReadCalls    atomic.Int32
	markAllReadCalls atomic.Int32
}

func (s *countingService) Notifications(ctx context.Context) ([]model.Notification, error) {
	return nil, nil
}

func (s *countingService) UnreadCount(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *countingService) MarkRead(ctx context.Context, id string) error {
	s.markReadCalls.Add(1)
	return nil
}

func (s *countingService) MarkAllRead(ctx context.Context) error {
	s.markAllReadCalls.Add(1)
	return nil
}

func newNotifTestModel(svc notify.Service) Model {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Model{
		logger:        logger,
		notifications: notify.NewStore(svc, logger),
		notifPanel:    notifpanel.New(keys.DefaultKeyMap(), 80, 24),
	}
}

func TestMarkReadRepaintsBeforeServerConfirm(t *testing.T) {
	svc := &countingService{}
	m := newNotifTestModel(svc)
	m.notifications.ApplyPush(model.Notification{
		ID:    "n1",
		Type:  model.EventRequestAccepted,
		Title: "Your request was accepted",
	})
	m.notifPanel, _ = m.notifPanel.Update(m.notifPanelSnapshot())

	if !strings.Contains(m.notifPanel.View(), "1 unread") {
		t.Fatal("panel must start with one unread notification")
	}

	mdl, cmd := m.markNotificationRead("n1")
	if cmd == nil {
		t.Fatal("expected a confirm command")
	}

	// The flip is visible immediately, before any server round-trip.
	if strings.Contains(mdl.notifPanel.View(), "unread") {
		t.Error("panel still shows unread after the local flip")
	}
	if _, unread := mdl.notifications.Snapshot(); unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
	if calls := svc.markReadCalls.Load(); calls != 0 {
		t.Errorf("server called before the confirm command ran, calls = %d", calls)
	}

	// The confirm happens when the command runs, and the completion
	// message triggers the reconcile repaint.
	if msg := mdl.confirmNotificationRead("n1")(); msg != (notifUpdatedMsg{}) {
		t.Errorf("confirm returned %T", msg)
	}
	if calls := svc.markReadCalls.Load(); calls != 1 {
		t.Errorf("confirm calls = %d, want 1", calls)
	}
}

func TestMarkAllReadRepaintsBeforeServerConfirm(t *testing.T) {
	svc := &countingService{}
	m := newNotifTestModel(svc)
	m.notifications.ApplyPush(model.Notification{ID: "n1", Type: model.EventGeneric, Title: "one"})
	m.notifications.ApplyPush(model.Notification{ID: "n2", Type: model.EventGeneric, Title: "two"})
	m.notifPanel, _ = m.notifPanel.Update(m.notifPanelSnapshot())

	mdl, cmd := m.markAllNotificationsRead()
	if cmd == nil {
		t.Fatal("expected a confirm command")
	}

	if strings.Contains(mdl.notifPanel.View(), "unread") {
		t.Error("panel still shows unread after the local flip")
	}
	if calls := svc.markAllReadCalls.Load(); calls != 0 {
		t.Errorf("server called before the confirm command ran, calls = %d", calls)
	}

	if msg := mdl.confirmAllNotificationsRead()(); msg != (notifUpdatedMsg{}) {
		t.Errorf("confirm returned %T", msg)
	}
	if calls := svc.markAllReadCalls.Load(); calls != 1 {
		t.Errorf("confirm calls = %d, want 1", calls)
	}
}
