package events

import (
	"context"
	"encoding/json"

	"loan-escrow/internal/domain/event"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "loan-events"

// RedisPublisher fans committed ledger events out on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

var _ event.Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	receivers, err := p.client.Publish(ctx, p.channel, string(data)).Result()
	if err != nil {
		return err
	}
	p.log.Debug("event published",
		zap.String("channel", p.channel),
		zap.String("event", e.Name),
		zap.Uint64("seq", e.Seq),
		zap.Int64("receivers", receivers))
	return nil
}
