package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/tests/testutil"
)

func cachedRequest(id string, createdAt time.Time) model.RepairRequest {
	return model.RepairRequest{
		ID:                 id,
		ClientID:           "u1",
		ClientLocation:     model.NewGeoPoint(13.0827, 80.2707),
		VehicleType:        model.VehicleFourWheeler,
		ProblemDescription: "engine will not start",
		Type:               model.RequestNormal,
		Status:             model.StatusPending,
		CreatedAt:          model.Time{Time: createdAt},
	}
}

func TestReplaceRequestsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	first := []model.RepairRequest{
		cachedRequest("r1", base),
		cachedRequest("r2", base.Add(time.Hour)),
	}
	if err := s.ReplaceRequests(ctx, "incoming", first); err != nil {
		t.Fatalf("ReplaceRequests: %v", err)
	}

	got, err := s.GetRequests(ctx, "incoming")
	if err != nil {
		t.Fatalf("GetRequests: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "r2" {
		t.Errorf("newest first violated: %s", got[0].ID)
	}
	if !got[0].ClientLocation.Valid() || got[0].ClientLocation.Lat() != 13.0827 {
		t.Errorf("location lost: %+v", got[0].ClientLocation)
	}
	if !got[0].AcceptedAt.IsZero() {
		t.Errorf("null accepted_at round-tripped as %v", got[0].AcceptedAt)
	}

	// A replacement snapshot fully supersedes the previous one.
	second := []model.RepairRequest{cachedRequest("r3", base.Add(2 * time.Hour))}
	if err := s.ReplaceRequests(ctx, "incoming", second); err != nil {
		t.Fatalf("second ReplaceRequests: %v", err)
	}
	got, err = s.GetRequests(ctx, "incoming")
	if err != nil {
		t.Fatalf("GetRequests: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r3" {
		t.Errorf("list = %+v, want only r3", got)
	}
}

func TestRequestListsAreIndependent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.ReplaceRequests(ctx, "incoming", []model.RepairRequest{cachedRequest("r1", now)}); err != nil {
		t.Fatalf("ReplaceRequests incoming: %v", err)
	}
	if err := s.ReplaceRequests(ctx, "active", []model.RepairRequest{cachedRequest("r2", now)}); err != nil {
		t.Fatalf("ReplaceRequests active: %v", err)
	}

	incoming, err := s.GetRequests(ctx, "incoming")
	if err != nil {
		t.Fatalf("GetRequests: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != "r1" {
		t.Errorf("incoming = %+v", incoming)
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	notifs := []model.Notification{
		{
			ID:        "n1",
			UserID:    "u1",
			Type:      model.EventRequestAccepted,
			Title:     "Request accepted",
			Message:   "AutoFix accepted your request",
			RequestID: "r1",
			CreatedAt: model.Time{Time: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		},
		{
			ID:        "n2",
			UserID:    "u1",
			Type:      model.EventGeneric,
			IsRead:    true,
			CreatedAt: model.Time{Time: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		},
	}
	if err := s.UpsertNotifications(ctx, notifs); err != nil {
		t.Fatalf("UpsertNotifications: %v", err)
	}

	got, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "n2" || !got[0].IsRead {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Type != model.EventRequestAccepted || got[1].RequestID != "r1" {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestShopRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	shops := []model.MechanicShop{
		{
			ID:          "s1",
			ShopName:    "AutoFix Garage",
			Location:    model.NewGeoPoint(13.05, 80.25),
			ShopTypes:   []string{"CAR_REPAIR", "PUNCTURE"},
			Rating:      4.5,
			IsAvailable: true,
		},
	}
	if err := s.UpsertShops(ctx, shops); err != nil {
		t.Fatalf("UpsertShops: %v", err)
	}

	got, err := s.GetShops(ctx)
	if err != nil {
		t.Fatalf("GetShops: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ShopName != "AutoFix Garage" || len(got[0].ShopTypes) != 2 {
		t.Errorf("shop = %+v", got[0])
	}
	if !got[0].Location.Valid() {
		t.Error("shop location lost")
	}
}

func TestClearWipesEverything(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceRequests(ctx, "mine", []model.RepairRequest{cachedRequest("r1", time.Now().UTC())}); err != nil {
		t.Fatalf("ReplaceRequests: %v", err)
	}
	if err := s.UpsertNotifications(ctx, []model.Notification{{ID: "n1", CreatedAt: model.Time{Time: time.Now().UTC()}}}); err != nil {
		t.Fatalf("UpsertNotifications: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	reqs, err := s.GetRequests(ctx, "mine")
	if err != nil {
		t.Fatalf("GetRequests: %v", err)
	}
	notifs, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(reqs) != 0 || len(notifs) != 0 {
		t.Errorf("cache not empty after Clear: %d requests, %d notifications", len(reqs), len(notifs))
	}
}
