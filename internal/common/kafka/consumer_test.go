package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConsumer() *Consumer {
	return &Consumer{
		logger:       zap.NewNop(),
		maxAttempts:  3,
		retryBackoff: time.Millisecond,
	}
}

func TestHandleWithRetry_RecoversFromTransientFailure(t *testing.T) {
	c := newTestConsumer()
	calls := 0
	err := c.handleWithRetry(context.Background(), kafkago.Message{Offset: 4}, func(ctx context.Context, msg kafkago.Message) error {
		calls++
		if calls == 1 {
			return errors.New("cache unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHandleWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	c := newTestConsumer()
	calls := 0
	boom := errors.New("malformed payload")
	err := c.handleWithRetry(context.Background(), kafkago.Message{}, func(ctx context.Context, msg kafkago.Message) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestHandleWithRetry_StopsWhenContextCancelled(t *testing.T) {
	c := newTestConsumer()
	c.retryBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.handleWithRetry(ctx, kafkago.Message{}, func(ctx context.Context, msg kafkago.Message) error {
		calls++
		cancel()
		return errors.New("cache unavailable")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
