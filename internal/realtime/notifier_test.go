package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	channel string
	message any
	err     error
}

func (p *capturePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.message = message
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisNotifierPublish(t *testing.T) {
	pub := &capturePublisher{}
	n := &RedisNotifier{client: pub, channel: Channel}

	require.NoError(t, n.Publish(context.Background(), Event{Name: EventAssetChanged, Payload: map[string]string{"owner": "u1"}}))
	assert.Equal(t, "hirevault:events", pub.channel)
	assert.JSONEq(t, `{"event":"asset_changed","data":{"owner":"u1"}}`, string(pub.message.([]byte)))

	ev, err := decodeEvent(string(pub.message.([]byte)))
	require.NoError(t, err)
	assert.Equal(t, EventAssetChanged, ev.Name)
}

func TestRedisNotifierError(t *testing.T) {
	n := &RedisNotifier{client: &capturePublisher{err: errors.New("conn refused")}, channel: Channel}
	assert.ErrorContains(t, n.Publish(context.Background(), Event{Name: EventAssetChanged}), "publish event")
}
