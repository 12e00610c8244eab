package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ViewProducer struct {
	client     *redis.Client
	streamName string
}

func NewViewProducer(client *redis.Client, streamName string) *ViewProducer {
	return &ViewProducer{
		client:     client,
		streamName: streamName,
	}
}

func (p *ViewProducer) Publish(ctx context.Context, event *ViewEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamName,
		Values: event.fields(),
	})

	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish view event: %w", err)
	}

	return nil
}

func (p *ViewProducer) StreamLength(ctx context.Context) (int64, error) {
	result := p.client.XLen(ctx, p.streamName)
	return result.Val(), result.Err()
}
