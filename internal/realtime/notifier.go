package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis channel every API instance publishes events on.
const Channel = "hirevault:events"

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes events to Redis so any instance's hub can relay them.
type RedisNotifier struct {
	client  publisher
	channel string
}

// NewRedisNotifier returns a notifier publishing on Channel.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, channel: Channel}
}

// Publish serializes ev and publishes it.
func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Relay subscribes to Channel and hands every event to the local notifier
// until ctx is cancelled.
func Relay(ctx context.Context, client *redis.Client, local Notifier, logger *log.Logger) error {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	logger = logger.WithPrefix("relay")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				logger.Warn("dropping malformed event", "err", err)
				continue
			}
			if err := local.Publish(ctx, ev); err != nil {
				logger.Warn("local delivery failed", "event", ev.Name, "err", err)
			}
		}
	}
}

func decodeEvent(payload string) (Event, error) {
	var wire struct {
		Name    string          `json:"event"`
		Room    string          `json:"room"`
		Payload json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return Event{}, err
	}
	if wire.Name == "" {
		return Event{}, fmt.Errorf("event name missing")
	}
	return Event{Name: wire.Name, Room: wire.Room, Payload: wire.Payload}, nil
}
