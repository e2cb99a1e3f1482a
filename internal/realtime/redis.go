package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

const channelPrefix = "user_"

// ChannelKey is the pub/sub channel of one user.
func ChannelKey(userID uint) string {
	return fmt.Sprintf("%s%d", channelPrefix, userID)
}

func parseChannelKey(key string) (uint, bool) {
	if !strings.HasPrefix(key, channelPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(key, channelPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// RedisPublisher publishes to the user's channel; every process running a
// Relay receives it.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, userID uint, payload []byte) error {
	if err := p.client.Publish(ctx, ChannelKey(userID), payload).Err(); err != nil {
		return pkgerrors.Wrap(err, "redis publish")
	}
	return nil
}

// HubPublisher delivers straight to the local hub. Used without Redis.
type HubPublisher struct {
	hub *Hub
}

func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish treats a user without live connections as delivered.
func (p *HubPublisher) Publish(_ context.Context, userID uint, payload []byte) error {
	if err := p.hub.Deliver(userID, payload); err != nil && !errors.Is(err, ErrNoConnection) {
		return err
	}
	return nil
}

// Relay forwards every user_* message from Redis to the local hub.
type Relay struct {
	client *redis.Client
	hub    *Hub
	ready  chan struct{}
	once   sync.Once
}

func NewRelay(client *redis.Client, hub *Hub) *Relay {
	return &Relay{client: client, hub: hub, ready: make(chan struct{})}
}

// Ready is closed once the pattern subscription is confirmed.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Run blocks until ctx ends or the subscription fails.
func (r *Relay) Run(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return pkgerrors.Wrap(err, "redis psubscribe")
	}
	r.once.Do(func() { close(r.ready) })
	logger.Info("realtime relay subscribed", zap.String("pattern", channelPrefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, ok := parseChannelKey(msg.Channel)
			if !ok {
				logger.Debug("realtime relay: ignoring channel", zap.String("channel", msg.Channel))
				continue
			}
			// Users connected to another process are not an error here.
			_ = r.hub.Deliver(userID, []byte(msg.Payload))
		}
	}
}
