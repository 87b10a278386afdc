package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const fanoutChannel = "tripcrew:ws"

// RedisFanout relays pushes through Redis pub/sub so a user connected to any
// backend instance receives them
type RedisFanout struct {
	client  *redis.Client
	channel string
}

type fanoutEnvelope struct {
	UserID int64           `json:"user_id"`
	Data   json.RawMessage `json:"data"`
}

// NewRedisFanout connects to redisURL (redis://host:port/db)
func NewRedisFanout(ctx context.Context, redisURL string) (*RedisFanout, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.DialTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisFanout{client: client, channel: fanoutChannel}, nil
}

func (f *RedisFanout) Publish(ctx context.Context, userID int64, data []byte) error {
	payload, err := json.Marshal(fanoutEnvelope{UserID: userID, Data: data})
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		log.Println("Redis publish error:", err)
		return err
	}
	return nil
}

// Subscribe delivers relayed pushes to hub's local clients until ctx is
// done. It returns once the subscription is confirmed; the returned channel
// closes when the relay goroutine exits.
func (f *RedisFanout) Subscribe(ctx context.Context, hub *Hub) (<-chan struct{}, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env fanoutEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Println("Redis message unmarshal error:", err)
					continue
				}
				hub.Deliver(env.UserID, env.Data)

			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("✅ Redis fan-out subscribed on %s", f.channel)
	return done, nil
}

func (f *RedisFanout) Close() error {
	return f.client.Close()
}
