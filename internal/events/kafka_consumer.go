package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/common/kafka"
)

// CacheInvalidator drops cached directory snapshots.
type CacheInvalidator interface {
	InvalidateBay(ctx context.Context, id int64) error
	InvalidateAdvisor(ctx context.Context, id int64) error
}

// DirectoryEventConsumer listens to directory events and evicts stale bay and advisor snapshots.
type DirectoryEventConsumer struct {
	consumer    *kafka.Consumer
	invalidator CacheInvalidator
	logger      *zap.Logger
}

// NewDirectoryEventConsumer creates a new DirectoryEventConsumer.
func NewDirectoryEventConsumer(
	brokers []string,
	groupID string,
	invalidator CacheInvalidator,
	logger *zap.Logger,
) *DirectoryEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicDirectoryEvents, logger)
	return &DirectoryEventConsumer{
		consumer:    consumer,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Start begins consuming directory events. This blocks until the context is cancelled.
func (c *DirectoryEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *DirectoryEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *DirectoryEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from directory topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.handleEvent(ctx, cloudEvent)
}

func (c *DirectoryEventConsumer) handleEvent(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var invalidate func(context.Context, int64) error
	switch cloudEvent.Type {
	case BayUpdated, BayDeleted:
		invalidate = c.invalidator.InvalidateBay
	case AdvisorUpdated, AdvisorDeleted:
		invalidate = c.invalidator.InvalidateAdvisor
	default:
		c.logger.Debug("ignoring unhandled directory event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt DirectoryChangedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse directory event data",
			zap.String("type", cloudEvent.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	if err := invalidate(ctx, evt.ID); err != nil {
		c.logger.Error("failed to invalidate directory cache",
			zap.String("type", cloudEvent.Type),
			zap.Int64("id", evt.ID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("directory cache invalidated",
		zap.String("type", cloudEvent.Type),
		zap.Int64("id", evt.ID),
	)
	return nil
}
