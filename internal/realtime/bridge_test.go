package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

// feed is a test WebSocket peer. Each accepted connection receives the
// frames written to its channel.
type feed struct {
	srv      *httptest.Server
	mu       sync.Mutex
	queries  []string
	conns    []chan string
	accepted chan struct{}
	closed   chan struct{}
}

func newFeed(t *testing.T) *feed {
	f := &feed{accepted: make(chan struct{}, 8), closed: make(chan struct{}, 8)}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		frames := make(chan string, 8)
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.conns = append(f.conns, frames)
		f.mu.Unlock()
		f.accepted <- struct{}{}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case frame := <-frames:
				conn.WriteMessage(websocket.TextMessage, []byte(frame))
			case <-done:
				conn.Close()
				f.closed <- struct{}{}
				return
			}
		}
	}))
	return f
}

func (f *feed) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
}

func (f *feed) send(i int, frame string) {
	f.mu.Lock()
	ch := f.conns[i]
	f.mu.Unlock()
	ch <- frame
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func collect() (Handler, <-chan Event) {
	events := make(chan Event, 16)
	return func(ev Event) { events <- ev }, events
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBridgeDeliversActiveTripDeviations(t *testing.T) {
	leaks := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, leaks)

	f := newFeed(t)
	defer f.srv.Close()

	handler, events := collect()
	b := NewBridge(Options{URL: f.url(), Token: "jwt", TripID: 9}, handler)
	unsubscribe, err := b.Subscribe(context.Background(), 5)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	wait(t, f.accepted, "connection")

	if q := f.queries[0]; !strings.Contains(q, "userId=5") || !strings.Contains(q, "token=jwt") {
		t.Fatalf("unexpected query %q", q)
	}

	// Coalesced frame: other trip, malformed, other type, then a match.
	f.send(0, `{"type":"route-deviation","tripId":3,"message":"other","distanceFromRoute":1}`+"\n"+
		`{not json`+"\n"+
		`{"type":"check-in","tripId":9}`+"\n"+
		`{"type":"route-deviation","tripId":9,"message":"You left the route","distanceFromRoute":1.7}`)

	ev := next(t, events)
	if ev.TripID != 9 || ev.Message != "You left the route" || ev.DistanceFromRouteKm != 1.7 {
		t.Fatalf("unexpected event %+v", ev)
	}

	// Missing distance is dropped.
	f.send(0, `{"type":"route-deviation","tripId":9,"message":"no distance"}`)
	f.send(0, `{"type":"route-deviation","tripId":9,"message":"second","distanceFromRoute":0.9}`)
	if ev := next(t, events); ev.Message != "second" {
		t.Fatalf("expected the malformed message to be dropped, got %+v", ev)
	}

	unsubscribe()
	wait(t, f.closed, "server side close")
	if b.Subscribed(5) {
		t.Fatal("expected no subscription after unsubscribe")
	}
	unsubscribe()
}

func TestBridgeResubscribeClosesPrevious(t *testing.T) {
	leaks := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, leaks)

	f := newFeed(t)
	defer f.srv.Close()

	handler, events := collect()
	b := NewBridge(Options{URL: f.url(), TripID: 1}, handler)

	first, err := b.Subscribe(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, f.accepted, "first connection")

	second, err := b.Subscribe(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, f.closed, "first connection to close")
	wait(t, f.accepted, "second connection")

	if b.registry.Len() != 1 {
		t.Fatalf("expected one live subscription, got %d", b.registry.Len())
	}

	f.send(1, `{"type":"route-deviation","tripId":1,"message":"m","distanceFromRoute":2}`)
	if ev := next(t, events); ev.DistanceFromRouteKm != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}

	first()
	if !b.Subscribed(5) {
		t.Fatal("stale unsubscribe must not drop the new subscription")
	}
	second()
	wait(t, f.closed, "second connection to close")
}

func TestBridgeRecoversHandlerPanic(t *testing.T) {
	leaks := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, leaks)

	f := newFeed(t)
	defer f.srv.Close()

	calls := make(chan struct{}, 4)
	b := NewBridge(Options{URL: f.url(), TripID: 1}, func(Event) {
		calls <- struct{}{}
		panic("boom")
	})
	unsubscribe, err := b.Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, f.accepted, "connection")

	frame := `{"type":"route-deviation","tripId":1,"message":"m","distanceFromRoute":2}`
	f.send(0, frame)
	f.send(0, frame)
	wait(t, calls, "first call")
	wait(t, calls, "second call")

	unsubscribe()
	wait(t, f.closed, "server side close")
}

func TestBridgeContextCancelCloses(t *testing.T) {
	leaks := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, leaks)

	f := newFeed(t)
	defer f.srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBridge(Options{URL: f.url()}, func(Event) {})
	unsubscribe, err := b.Subscribe(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, f.accepted, "connection")

	cancel()
	wait(t, f.closed, "server side close")
	unsubscribe()
	if b.Subscribed(2) {
		t.Fatal("expected subscription to be released")
	}
}

func TestBridgeDialFailure(t *testing.T) {
	b := NewBridge(Options{URL: "ws://127.0.0.1:1/ws"}, func(Event) {})
	if _, err := b.Subscribe(context.Background(), 1); err == nil {
		t.Fatal("expected dial error")
	}
	if b.Subscribed(1) {
		t.Fatal("failed dial must not register")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a, b := &fakeCloser{}, &fakeCloser{}

	if prev := r.Swap(1, a); prev != nil {
		t.Fatal("expected empty registry")
	}
	if prev := r.Swap(1, b); prev != a {
		t.Fatal("expected swap to return the replaced subscription")
	}
	if r.Release(1, a) {
		t.Fatal("stale release must be ignored")
	}
	if !r.Release(1, b) || r.Active(1) || r.Len() != 0 {
		t.Fatal("expected release of the current subscription")
	}
}

type fakeCloser struct{ closed bool }

func (c *fakeCloser) Close() error {
	c.closed = true
	return nil
}
