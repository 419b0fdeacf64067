package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/convreg/convreg/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsBus implements EventBus using Redis Streams. Each
// subscription reads through its own consumer group, so topics behave
// like broadcast channels across subscribers and instances.
type StreamsBus struct {
	client        *redis.Client
	logger        *zap.Logger
	consumerGroup string
	consumerName  string
}

// NewStreamsBus creates a new Redis Streams event bus.
func NewStreamsBus(client *redis.Client, consumerGroup, consumerName string, logger *zap.Logger) (*StreamsBus, error) {
	return &StreamsBus{
		client:        client,
		logger:        logger,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
	}, nil
}

// Publish publishes an event to the stream for a topic.
func (b *StreamsBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	streamKey := getStreamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := b.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	b.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("topic", topic),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe subscribes to events on a specific topic. Every
// subscription gets its own consumer group, so delivery is a
// broadcast and matches the memory bus: two subscribers on the same
// topic each see every event instead of competing for them.
func (b *StreamsBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	streamKey := getStreamKey(topic)
	group := subscriptionGroup(b.consumerGroup)

	// Start at $: a new subscriber only sees events published after it
	// joined, like a memory bus subscriber.
	err := b.client.XGroupCreateMkStream(ctx, streamKey, group, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	b.logger.Info("subscribed to event stream",
		zap.String("stream", streamKey),
		zap.String("topic", topic),
		zap.String("consumer_group", group),
		zap.String("consumer", b.consumerName))

	go b.readStream(ctx, streamKey, group, handler)

	return nil
}

// readStream reads events from a stream until ctx is cancelled, then
// destroys the subscription's consumer group.
func (b *StreamsBus) readStream(ctx context.Context, streamKey, group string, handler ports.EventHandler) {
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := b.client.XGroupDestroy(cleanupCtx, streamKey, group).Err(); err != nil {
			b.logger.Debug("failed to destroy consumer group",
				zap.String("stream", streamKey),
				zap.String("consumer_group", group),
				zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    group,
				Consumer: b.consumerName,
				Streams:  []string{streamKey, ">"},
				Count:    10,
				Block:    time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					// No new messages
					continue
				}
				if ctx.Err() != nil {
					return
				}
				b.logger.Error("failed to read from stream",
					zap.String("stream", streamKey),
					zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					b.processMessage(ctx, streamKey, group, message, handler)
				}
			}
		}
	}
}

// processMessage processes a single message from the stream.
func (b *StreamsBus) processMessage(ctx context.Context, streamKey, group string, message redis.XMessage, handler ports.EventHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		b.logger.Error("invalid message format",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID))
		return
	}

	var event ports.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		b.logger.Error("failed to unmarshal event",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("handler error",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := b.client.XAck(ctx, streamKey, group, message.ID).Err(); err != nil {
		b.logger.Error("failed to acknowledge message",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
	}
}

// Unsubscribe removes subscriptions from a topic. Stream consumers
// drain naturally when their context ends; nothing to tear down here.
func (b *StreamsBus) Unsubscribe(ctx context.Context, topic string) error {
	return nil
}

// Close closes the event bus. The Redis client is owned by the caller.
func (b *StreamsBus) Close() error {
	return nil
}

// getStreamKey returns the Redis stream key for a topic.
func getStreamKey(topic string) string {
	return fmt.Sprintf("convreg:events:%s", topic)
}

// subscriptionGroup derives a unique consumer group name for a single
// subscription.
func subscriptionGroup(base string) string {
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

