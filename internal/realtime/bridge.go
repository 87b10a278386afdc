// Package realtime subscribes to the trip backend's WebSocket feed and turns
// route-deviation pushes into events for the active trip.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tripcrew/internal/models"
)

const (
	// Time allowed to write a control message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from the server
	maxMessageSize = 8192
)

// Event is a route deviation pushed for the active trip
type Event struct {
	TripID              int64
	Message             string
	DistanceFromRouteKm float64
}

// Handler receives events on the subscription's read goroutine
type Handler func(Event)

// Unsubscribe closes the socket and waits for its goroutines to exit
type Unsubscribe func()

// Options configures a Bridge
type Options struct {
	URL    string // ws(s)://host/ws
	Token  string
	TripID int64
	Dialer *websocket.Dialer
}

// Bridge holds at most one subscription per user
type Bridge struct {
	url      string
	token    string
	dialer   *websocket.Dialer
	handler  Handler
	registry *Registry
	tripID   atomic.Int64
}

func NewBridge(opts Options, handler Handler) *Bridge {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	b := &Bridge{
		url:      opts.URL,
		token:    opts.Token,
		dialer:   opts.Dialer,
		handler:  handler,
		registry: NewRegistry(),
	}
	b.tripID.Store(opts.TripID)
	return b
}

// SetTrip changes which trip's events are delivered
func (b *Bridge) SetTrip(tripID int64) {
	b.tripID.Store(tripID)
}

// Subscribed reports whether userID has a live subscription
func (b *Bridge) Subscribed(userID int64) bool {
	return b.registry.Active(userID)
}

// Subscribe opens the feed for userID, closing any previous subscription for
// that user first. ctx bounds the dial and the subscription's lifetime.
func (b *Bridge) Subscribe(ctx context.Context, userID int64) (Unsubscribe, error) {
	if prev := b.registry.Drop(userID); prev != nil {
		prev.Close()
	}

	target, err := b.endpoint(userID)
	if err != nil {
		return nil, err
	}

	conn, _, err := b.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	sub := &subscription{
		bridge: b,
		userID: userID,
		conn:   conn,
		stop:   make(chan struct{}),
	}
	if racer := b.registry.Swap(userID, sub); racer != nil {
		racer.Close()
	}

	sub.wg.Add(2)
	go sub.readLoop()
	go sub.pingLoop(ctx)

	log.Printf("🔌 Subscribed to realtime events for user %d", userID)
	return func() { sub.Close() }, nil
}

func (b *Bridge) endpoint(userID int64) (string, error) {
	u, err := url.Parse(b.url)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url %q: %w", b.url, err)
	}
	q := u.Query()
	q.Set("userId", strconv.FormatInt(userID, 10))
	if b.token != "" {
		q.Set("token", b.token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// inbound keeps the distance optional so a missing field reads as malformed
type inbound struct {
	Type              string   `json:"type"`
	TripID            int64    `json:"tripId"`
	Message           string   `json:"message"`
	DistanceFromRoute *float64 `json:"distanceFromRoute"`
}

// dispatch decodes each newline-separated message in a frame
func (b *Bridge) dispatch(frame []byte) {
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var msg inbound
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Printf("⚠️  Dropping malformed realtime message: %v", err)
			continue
		}
		if msg.Type != models.MessageTypeRouteDeviation {
			continue
		}
		if msg.DistanceFromRoute == nil {
			log.Printf("⚠️  Dropping route-deviation message without distance")
			continue
		}
		if msg.TripID != b.tripID.Load() {
			continue
		}

		b.deliver(Event{TripID: msg.TripID, Message: msg.Message, DistanceFromRouteKm: *msg.DistanceFromRoute})
	}
}

func (b *Bridge) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Realtime handler panicked: %v", r)
		}
	}()
	b.handler(ev)
}

type subscription struct {
	bridge *Bridge
	userID int64
	conn   *websocket.Conn

	stop      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup
}

// Close is safe to call more than once. It must not be called from a Handler.
func (s *subscription) Close() error {
	s.shutdown()
	s.wg.Wait()
	return nil
}

func (s *subscription) shutdown() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		s.conn.Close()
		s.bridge.registry.Release(s.userID, s)
	})
}

func (s *subscription) readLoop() {
	defer s.wg.Done()
	defer s.shutdown()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("❌ Realtime connection lost for user %d: %v", s.userID, err)
			}
			return
		}
		s.bridge.dispatch(frame)
	}
}

func (s *subscription) pingLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				log.Printf("⚠️  Realtime ping failed for user %d: %v", s.userID, err)
				s.shutdown()
				return
			}
		}
	}
}
