package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/roadassist/client/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, func() string { return "test-token" })
	return client, server
}

func TestBearerHeaderSet(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	if _, err := client.MyRequests(context.Background()); err != nil {
		t.Fatalf("MyRequests: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
	}
}

func TestEnvelopeUnwrapped(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"ok","data":{"token":"tok","user":{"id":"u1","email":"a@b.c","name":"A","role":"CLIENT"}}}`))
	}))
	defer server.Close()

	resp, err := client.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "tok" {
		t.Errorf("token = %q, want tok", resp.Token)
	}
	if resp.User.Role != model.RoleClient {
		t.Errorf("role = %q, want CLIENT", resp.User.Role)
	}
}

func TestEnvelopeFailureCarriesServerMessage(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"request already taken"}`))
	}))
	defer server.Close()

	_, err := client.AcceptRequest(context.Background(), "r1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "request already taken" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestUnauthorizedInvokesHookOnce(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"token expired"}`))
	}))
	defer server.Close()

	var calls atomic.Int32
	client.OnUnauthorized(func() { calls.Add(1) })

	_, err := client.MyRequests(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("want AuthError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("onUnauthorized calls = %d, want 1", calls.Load())
	}
}

func TestForbiddenIsAuthErrorWithoutHook(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var calls atomic.Int32
	client.OnUnauthorized(func() { calls.Add(1) })

	_, err := client.IncomingRequests(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("want AuthError, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("onUnauthorized must not fire on 403, calls = %d", calls.Load())
	}
}

func TestRateLimitedRetriesWithRetryAfter(t *testing.T) {
	var attempts atomic.Int32
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	if _, err := client.Notifications(context.Background()); err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}

func TestPostBodyResentOnRetry(t *testing.T) {
	var attempts atomic.Int32
	var lastLen int64
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastLen = r.ContentLength
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"id":"r1","status":"PENDING"}}`))
	}))
	defer server.Close()

	_, err := client.CreateRequest(context.Background(), CreateRequestInput{
		MechanicShopID: "s1",
		VehicleType:    model.VehicleFourWheeler,
		Latitude:       13.0827,
		Longitude:      80.2707,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if lastLen == 0 {
		t.Error("retried POST lost its body")
	}
}

func TestSetAvailabilityPutsFlag(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	if err := client.SetAvailability(context.Background(), true); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/mechanic/availability" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(gotBody, `"isAvailable":true`) {
		t.Errorf("body = %s", gotBody)
	}
}

func TestShopFetchedByID(t *testing.T) {
	var gotPath string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"data":{"id":"s1","shopName":"Ravi Motors","isAvailable":false,"rating":4.2}}`))
	}))
	defer server.Close()

	shop, err := client.Shop(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Shop: %v", err)
	}
	if gotPath != "/mechanics/s1" {
		t.Errorf("path = %s", gotPath)
	}
	if shop.ShopName != "Ravi Motors" || shop.IsAvailable {
		t.Errorf("shop = %+v", shop)
	}
}

func TestNearbyShopsQueryEncoding(t *testing.T) {
	var gotQuery map[string][]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	_, err := client.NearbyShops(context.Background(), NearbyQuery{
		Latitude:    13.0827,
		Longitude:   80.2707,
		RadiusKm:    20,
		VehicleType: model.VehicleTwoWheeler,
	})
	if err != nil {
		t.Fatalf("NearbyShops: %v", err)
	}
	if got := gotQuery["radiusKm"]; len(got) != 1 || got[0] != "20" {
		t.Errorf("radiusKm = %v", got)
	}
	if got := gotQuery["vehicleType"]; len(got) != 1 || got[0] != "TWO_WHEELER" {
		t.Errorf("vehicleType = %v", got)
	}
	if _, present := gotQuery["includeUnavailable"]; present {
		t.Error("includeUnavailable must be omitted when false")
	}
}
