package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

func TestRedisSink_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	sink := NewRedisSink(client, "reservation:events", "")
	err := sink.Publish(context.Background(), domain.Event{Type: domain.EventBookingCreated, TenantID: 1})
	assert.ErrorIs(t, err, ErrPublish)
}
