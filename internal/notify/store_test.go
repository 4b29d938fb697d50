package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/model"
)

// fakeService is an in-memory notification backend.
type fakeService struct {
	items []model.Notification

	markReadErr    error
	markAllReadErr error

	markReadCalls    int
	refetchCalls     int
	markAllReadCalls int
}

func (f *fakeService) Notifications(ctx context.Context) ([]model.Notification, error) {
	f.refetchCalls++
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeService) UnreadCount(ctx context.Context) (int, error) {
	count := 0
	for _, n := range f.items {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeService) MarkRead(ctx context.Context, id string) error {
	f.markReadCalls++
	if f.markReadErr != nil {
		return f.markReadErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeService) MarkAllRead(ctx context.Context) error {
	f.markAllReadCalls++
	if f.markAllReadErr != nil {
		return f.markAllReadErr
	}
	for i := range f.items {
		f.items[i].IsRead = true
	}
	return nil
}

func notif(id string, read bool) model.Notification {
	return model.Notification{ID: id, Type: model.EventGeneric, IsRead: read}
}

func TestRefetchReplacesWholesale(t *testing.T) {
	svc := &fakeService{items: []model.Notification{notif("n1", false), notif("n2", true)}}
	store := NewStore(svc, nil)

	store.ApplyPush(notif("stale", false))

	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}

	items, unread := store.Snapshot()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}
}

func TestApplyPushPrependsAndCounts(t *testing.T) {
	store := NewStore(&fakeService{}, nil)

	store.ApplyPush(notif("n1", false))
	store.ApplyPush(notif("n2", false))

	items, unread := store.Snapshot()
	if items[0].ID != "n2" {
		t.Errorf("newest first violated: %s", items[0].ID)
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}

	// Same ID again must not double-count.
	store.ApplyPush(notif("n2", false))
	items, unread = store.Snapshot()
	if len(items) != 2 || unread != 2 {
		t.Errorf("duplicate push changed state: len=%d unread=%d", len(items), unread)
	}
}

func TestMarkReadOptimistic(t *testing.T) {
	svc := &fakeService{items: []model.Notification{notif("n1", false)}}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}

	if err := store.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	items, unread := store.Snapshot()
	if !items[0].IsRead || unread != 0 {
		t.Errorf("read=%v unread=%d", items[0].IsRead, unread)
	}

	// Marking again must not hit the server or drive unread negative.
	if err := store.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if svc.markReadCalls != 1 {
		t.Errorf("markRead calls = %d, want 1", svc.markReadCalls)
	}
	if store.Unread() != 0 {
		t.Errorf("unread = %d, want 0", store.Unread())
	}
}

func TestMarkReadLocalFlipsWithoutServerCall(t *testing.T) {
	svc := &fakeService{items: []model.Notification{notif("n1", false)}}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}

	if !store.MarkReadLocal("n1") {
		t.Fatal("expected the flip to report true")
	}
	items, unread := store.Snapshot()
	if !items[0].IsRead || unread != 0 {
		t.Errorf("after local flip: read=%v unread=%d", items[0].IsRead, unread)
	}
	if svc.markReadCalls != 0 {
		t.Errorf("local flip hit the server, calls = %d", svc.markReadCalls)
	}

	// Flipping again is a no-op; the confirm is a separate step.
	if store.MarkReadLocal("n1") {
		t.Error("second flip must report false")
	}
	if err := store.ConfirmRead(context.Background(), "n1"); err != nil {
		t.Fatalf("ConfirmRead: %v", err)
	}
	if svc.markReadCalls != 1 {
		t.Errorf("confirm calls = %d, want 1", svc.markReadCalls)
	}
}

func TestMarkAllReadLocalFlipsWithoutServerCall(t *testing.T) {
	svc := &fakeService{items: []model.Notification{notif("n1", false), notif("n2", false)}}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}

	store.MarkAllReadLocal()

	if unread := store.Unread(); unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
	if svc.markAllReadCalls != 0 {
		t.Errorf("local flip hit the server, calls = %d", svc.markAllReadCalls)
	}
}

func TestMarkReadFailureReconcilesByRefetch(t *testing.T) {
	svc := &fakeService{
		items:       []model.Notification{notif("n1", false)},
		markReadErr: errors.New("boom"),
	}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	refetchesBefore := svc.refetchCalls

	if err := store.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatal("expected error")
	}

	if svc.refetchCalls != refetchesBefore+1 {
		t.Errorf("refetch calls = %d, want %d", svc.refetchCalls, refetchesBefore+1)
	}

	// Server still says unread, so the optimistic flip is rolled back
	// by the refetch.
	items, unread := store.Snapshot()
	if items[0].IsRead || unread != 1 {
		t.Errorf("after reconcile: read=%v unread=%d", items[0].IsRead, unread)
	}
}

func TestMarkAllReadFailureRestoresViaRefetch(t *testing.T) {
	svc := &fakeService{
		items: []model.Notification{
			notif("n1", false), notif("n2", false), notif("n3", true),
		},
		markAllReadErr: errors.New("offline"),
	}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}

	if err := store.MarkAllRead(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	_, unread := store.Snapshot()
	if unread != 2 {
		t.Errorf("unread = %d, want 2 restored from server", unread)
	}
}

func TestAuthErrorSuppressesReconcileRefetch(t *testing.T) {
	svc := &fakeService{
		items:       []model.Notification{notif("n1", false)},
		markReadErr: &api.AuthError{StatusCode: 401, Message: "expired"},
	}
	store := NewStore(svc, nil)
	if err := store.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	refetchesBefore := svc.refetchCalls

	err := store.MarkRead(context.Background(), "n1")
	if !api.IsAuthError(err) {
		t.Fatalf("want AuthError, got %v", err)
	}
	if svc.refetchCalls != refetchesBefore {
		t.Errorf("auth failure must not trigger a refetch, calls = %d", svc.refetchCalls)
	}
}
