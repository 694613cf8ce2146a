package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type InventoryTrigger interface {
	OnOrderCreated(ctx context.Context, order domain.Order) (*domain.AdjustmentReport, error)
}

type AnalyticsTrigger interface {
	OnOrderCreated(ctx context.Context, order domain.Order) error
}

type ProfileTrigger interface {
	OnCustomerCreated(ctx context.Context, customer domain.Customer) (bool, error)
}

// defaultRetryDelay is the pause after a failed fetch before trying again.
const defaultRetryDelay = time.Second

type Topics struct {
	OrderCreated    string
	CustomerCreated string
}

// OrderConsumer turns "document created" notifications into trigger calls.
// Trigger failures are logged and the message is committed anyway; nothing
// is retried.
type OrderConsumer struct {
	reader    MessageReader
	topics    Topics
	inventory InventoryTrigger
	analytics AnalyticsTrigger
	profiles  ProfileTrigger
	logger    *zap.Logger

	retryDelay time.Duration
}

func NewOrderConsumer(reader MessageReader, topics Topics, inventory InventoryTrigger, analytics AnalyticsTrigger, profiles ProfileTrigger, logger *zap.Logger) *OrderConsumer {
	return &OrderConsumer{
		reader:    reader,
		topics:    topics,
		inventory: inventory,
		analytics: analytics,
		profiles:  profiles,
		logger:    logger,

		retryDelay: defaultRetryDelay,
	}
}

// NewKafkaReader builds a group reader subscribed to both topics.
func NewKafkaReader(brokers []string, groupID string, topics Topics) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: []string{topics.OrderCreated, topics.CustomerCreated},
	})
}

// Run reads until ctx is done or the reader is closed.
func (c *OrderConsumer) Run(ctx context.Context) error {
	c.logger.Info("trigger consumer started", zap.String("orders", c.topics.OrderCreated), zap.String("customers", c.topics.CustomerCreated))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("trigger consumer stopped")
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("trigger consumer stopped: reader closed")
				return nil
			}
			c.logger.Error("failed to read message", zap.Error(err), zap.Duration("retry_in", c.retryDelay))
			select {
			case <-ctx.Done():
				c.logger.Info("trigger consumer stopped")
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.Handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Handle dispatches one message. Errors never escape.
func (c *OrderConsumer) Handle(ctx context.Context, msg kafka.Message) {
	logger := c.logger.With(
		zap.String("invocation_id", uuid.New().String()),
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	switch msg.Topic {
	case c.topics.OrderCreated:
		var order domain.Order
		if err := decode(msg.Value, &order); err != nil {
			logger.Error("invalid order event", zap.Error(err), zap.ByteString("raw_value", msg.Value))
			return
		}
		c.handleOrder(ctx, logger, order)

	case c.topics.CustomerCreated:
		var customer domain.Customer
		if err := decode(msg.Value, &customer); err != nil {
			logger.Error("invalid customer event", zap.Error(err), zap.ByteString("raw_value", msg.Value))
			return
		}
		if _, err := c.profiles.OnCustomerCreated(ctx, customer); err != nil {
			logger.Error("profile bootstrap failed", zap.String("customer_id", customer.ID), zap.Error(err))
		}

	default:
		logger.Warn("message on unknown topic ignored")
	}
}

// handleOrder runs both order triggers; one failing does not stop the other.
func (c *OrderConsumer) handleOrder(ctx context.Context, logger *zap.Logger, order domain.Order) {
	if _, err := c.inventory.OnOrderCreated(ctx, order); err != nil {
		logger.Error("inventory adjustment failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	if err := c.analytics.OnOrderCreated(ctx, order); err != nil {
		logger.Error("order analytics failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

func (c *OrderConsumer) Close() error {
	return c.reader.Close()
}
