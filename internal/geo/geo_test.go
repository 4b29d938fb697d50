package geo

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/roadassist/client/internal/model"
)

func TestDistanceKnownPair(t *testing.T) {
	// Chennai city center to its airport, roughly 15.5 km.
	center := model.Position{Latitude: 13.0827, Longitude: 80.2707}
	airport := model.Position{Latitude: 12.9941, Longitude: 80.1709}

	d := DistanceKm(center, airport)
	if math.Abs(d-14.7) > 1.0 {
		t.Errorf("distance = %.2f km, expected about 14.7", d)
	}
}

func TestDistanceZero(t *testing.T) {
	p := model.Position{Latitude: 13.0827, Longitude: 80.2707}
	if d := DistanceKm(p, p); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func shopAt(id string, lat, lng float64) model.MechanicShop {
	return model.MechanicShop{ID: id, Location: model.NewGeoPoint(lat, lng)}
}

func TestFilterByRadiusInclusiveBoundary(t *testing.T) {
	origin := model.Position{Latitude: 13.0827, Longitude: 80.2707}

	// About 0.165 degrees of latitude is 18.3 km; 0.19 is 21.1 km.
	near := shopAt("near", 13.0827+0.165, 80.2707)
	far := shopAt("far", 13.0827+0.19, 80.2707)
	noLoc := model.MechanicShop{ID: "noloc"}

	got := FilterByRadius([]model.MechanicShop{far, near, noLoc}, origin, 20)
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("filtered = %+v, want only near", got)
	}
	if got[0].DistanceKm <= 0 || got[0].DistanceKm > 20 {
		t.Errorf("DistanceKm = %v", got[0].DistanceKm)
	}

	// A shop sitting exactly on the boundary stays in.
	exact := shopAt("exact", 13.0827, 80.2707)
	got = FilterByRadius([]model.MechanicShop{exact}, origin, 0)
	if len(got) != 1 {
		t.Error("zero-distance shop must pass a zero radius")
	}
}

func TestFilterByRadiusSortedNearestFirst(t *testing.T) {
	origin := model.Position{Latitude: 13.0, Longitude: 80.0}
	shops := []model.MechanicShop{
		shopAt("b", 13.05, 80.0),
		shopAt("a", 13.01, 80.0),
		shopAt("c", 13.1, 80.0),
	}
	got := FilterByRadius(shops, origin, 100)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order = %v", got)
		}
	}
}

// scriptedProvider returns a fixed sequence of positions.
type scriptedProvider struct {
	mu        sync.Mutex
	positions []model.Position
	idx       int
}

func (s *scriptedProvider) Current(ctx context.Context) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.positions[s.idx]
	if s.idx < len(s.positions)-1 {
		s.idx++
	}
	return pos, nil
}

func collectFixes(t *testing.T, w *Watcher, wait time.Duration) []model.Position {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	<-done

	var fixes []model.Position
	for {
		select {
		case pos, ok := <-w.Fixes():
			if !ok {
				return fixes
			}
			fixes = append(fixes, pos)
		default:
			return fixes
		}
	}
}

func TestWatcherClosesFixesOnCancel(t *testing.T) {
	provider := &scriptedProvider{positions: []model.Position{
		{Latitude: 13.0, Longitude: 80.0},
	}}
	w := NewWatcher(provider, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// A receiver parked on the stream must unblock instead of leaking.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-w.Fixes():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("fixes channel still open after Run returned")
		}
	}
}

func TestWatcherEmitsFirstFix(t *testing.T) {
	provider := &scriptedProvider{positions: []model.Position{
		{Latitude: 13.0, Longitude: 80.0},
	}}
	w := NewWatcher(provider, 10*time.Millisecond, nil)

	fixes := collectFixes(t, w, 60*time.Millisecond)
	if len(fixes) != 1 {
		t.Fatalf("fixes = %v, want exactly the first fix", fixes)
	}
}

func TestWatcherIgnoresJitterBelowThreshold(t *testing.T) {
	provider := &scriptedProvider{positions: []model.Position{
		{Latitude: 13.0, Longitude: 80.0},
		{Latitude: 13.00005, Longitude: 80.00005},
	}}
	w := NewWatcher(provider, 10*time.Millisecond, nil)

	fixes := collectFixes(t, w, 80*time.Millisecond)
	if len(fixes) != 1 {
		t.Fatalf("fixes = %v, jitter must not emit", fixes)
	}
}

func TestWatcherEmitsOnRealMovement(t *testing.T) {
	provider := &scriptedProvider{positions: []model.Position{
		{Latitude: 13.0, Longitude: 80.0},
		{Latitude: 13.0002, Longitude: 80.0},
	}}
	w := NewWatcher(provider, 10*time.Millisecond, nil)

	fixes := collectFixes(t, w, 80*time.Millisecond)
	if len(fixes) != 2 {
		t.Fatalf("fixes = %v, want initial fix plus the movement", fixes)
	}
	if fixes[1].Latitude != 13.0002 {
		t.Errorf("second fix = %+v", fixes[1])
	}
}

func TestMovedThresholdPerAxis(t *testing.T) {
	base := model.Position{Latitude: 13.0, Longitude: 80.0}
	cases := []struct {
		to   model.Position
		want bool
	}{
		{model.Position{Latitude: 13.00005, Longitude: 80.0}, false},
		{model.Position{Latitude: 13.0002, Longitude: 80.0}, true},
		{model.Position{Latitude: 13.0, Longitude: 80.0002}, true},
		{model.Position{Latitude: 13.0, Longitude: 80.0}, false},
	}
	for _, c := range cases {
		if got := moved(base, c.to); got != c.want {
			t.Errorf("moved(%+v) = %v, want %v", c.to, got, c.want)
		}
	}
}
