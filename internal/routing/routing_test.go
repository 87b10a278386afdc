package routing

import (
	"context"
	"math"
	"testing"
	"time"

	"tripcrew/internal/models"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestHaversineDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km.
	if d := HaversineDistance(0, 0, 1, 0); !near(d, 111.19, 0.01) {
		t.Fatalf("unexpected distance %.4f", d)
	}
	if d := HaversineDistance(40, -74, 40, -74); d != 0 {
		t.Fatalf("expected zero, got %f", d)
	}
}

func TestDistanceToSegment(t *testing.T) {
	a := LatLng{Latitude: 0, Longitude: 0}
	b := LatLng{Latitude: 0, Longitude: 1}

	// Perpendicular to the middle of the segment.
	if d := DistanceToSegment(LatLng{Latitude: 0.01, Longitude: 0.5}, a, b); !near(d, 1.112, 0.01) {
		t.Fatalf("expected ~1.112 km, got %.4f", d)
	}
	// Beyond the end clamps to the endpoint.
	want := HaversineDistance(0, 1.1, 0, 1)
	if d := DistanceToSegment(LatLng{Latitude: 0, Longitude: 1.1}, a, b); !near(d, want, 1e-9) {
		t.Fatalf("expected endpoint distance %.4f, got %.4f", want, d)
	}
	// Degenerate segment.
	if d := DistanceToSegment(LatLng{Latitude: 0.01}, a, a); !near(d, 1.112, 0.01) {
		t.Fatalf("unexpected degenerate distance %.4f", d)
	}
}

func TestDistanceToRoute(t *testing.T) {
	if !math.IsInf(DistanceToRoute(LatLng{}, nil), 1) {
		t.Fatal("empty route must be infinitely far")
	}
	route := []LatLng{{0, 0}, {0, 1}, {1, 1}}
	if d := DistanceToRoute(LatLng{Latitude: 0.5, Longitude: 1.001}, route); !near(d, 0.111, 0.01) {
		t.Fatalf("expected closest leg distance, got %.4f", d)
	}
}

type countingLoader struct {
	calls  int
	points []models.RoutePoint
}

func (l *countingLoader) RoutePoints(ctx context.Context, tripID int64) ([]models.RoutePoint, error) {
	l.calls++
	return l.points, nil
}

func TestAdherence(t *testing.T) {
	loader := &countingLoader{points: []models.RoutePoint{
		{TripID: 1, Seq: 0, Latitude: 0, Longitude: 0},
		{TripID: 1, Seq: 1, Latitude: 0, Longitude: 1},
	}}
	a := NewAdherence(loader, NewRouteCache(10, time.Hour), 0)

	on, err := a.Evaluate(context.Background(), 1, 0.001, 0.5)
	if err != nil || on == nil || !on.IsOnRoute {
		t.Fatalf("expected on route, got %+v %v", on, err)
	}
	off, _ := a.Evaluate(context.Background(), 1, 0.02, 0.5)
	if off.IsOnRoute || !near(off.DistanceFromRouteKm, 2.22, 0.02) {
		t.Fatalf("expected off route by ~2.22 km, got %+v", off)
	}
	if loader.calls != 1 {
		t.Fatalf("expected the route to be cached, loaded %d times", loader.calls)
	}

	none := NewAdherence(&countingLoader{}, nil, 0.5)
	if st, err := none.Evaluate(context.Background(), 2, 0, 0); st != nil || err != nil {
		t.Fatalf("expected no status without a route, got %+v %v", st, err)
	}
}

func TestRouteCacheExpiryAndEviction(t *testing.T) {
	c := NewRouteCache(2, time.Minute)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set(1, []LatLng{{1, 1}})
	c.Set(2, []LatLng{{2, 2}})
	now = now.Add(time.Second)
	c.Get(1)
	c.Set(3, []LatLng{{3, 3}})

	if _, ok := c.Get(2); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatal("recently used entry should survive")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(3); ok {
		t.Fatal("expired entry must miss")
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 || s.Evictions != 2 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
