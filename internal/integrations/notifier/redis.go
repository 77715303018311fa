package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// RedisSink кладет события в список Redis (LPUSH), откуда их забирают
// сервисы билетов, уведомлений и счетов; дополнительно публикует в канал
type RedisSink struct {
	client  redis.Cmdable
	listKey string
	channel string
}

// NewRedisSink создает получателя событий поверх клиента Redis
// Пустой channel отключает публикацию в pub/sub
func NewRedisSink(client redis.Cmdable, listKey, channel string) *RedisSink {
	return &RedisSink{client: client, listKey: listKey, channel: channel}
}

// Publish сериализует событие в JSON и отправляет его одним конвейером
func (s *RedisSink) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeEvent, err)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.listKey, payload)
		if s.channel != "" {
			pipe.Publish(ctx, s.channel, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: key=%s: %w", ErrPublish, s.listKey, err)
	}

	return nil
}
