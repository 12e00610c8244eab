package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is a decoded stream entry. Entries that fail to decode carry a nil Event
// and are still acknowledged so they do not block the group.
type Message struct {
	ID    string
	Event *ViewEvent
}

type ViewConsumer struct {
	client     *redis.Client
	streamName string
	group      string
	consumer   string
}

func NewViewConsumer(client *redis.Client, streamName, group, consumer string) *ViewConsumer {
	return &ViewConsumer{
		client:     client,
		streamName: streamName,
		group:      group,
		consumer:   consumer,
	}
}

// EnsureGroup creates the consumer group and the stream if needed.
func (c *ViewConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.streamName, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Read blocks up to block for at most count new messages. A timeout yields no
// messages and no error.
func (c *ViewConsumer) Read(ctx context.Context, count int, block time.Duration) ([]Message, error) {
	return c.read(ctx, ">", count, block)
}

// ReadPending returns messages already delivered to this consumer but never acked,
// oldest first. It does not block.
func (c *ViewConsumer) ReadPending(ctx context.Context, count int) ([]Message, error) {
	return c.read(ctx, "0", count, -1)
}

func (c *ViewConsumer) read(ctx context.Context, id string, count int, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.streamName, id},
		Count:    int64(count),
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			event, err := ParseViewEvent(msg.Values)
			if err != nil {
				event = nil
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, nil
}

func (c *ViewConsumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.client.XAck(ctx, c.streamName, c.group, ids...).Err()
}
