// Package notify turns push notifications read from Kafka into room
// donations.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/logging"
	"github.com/soyeahso/intentd/internal/version"
)

// MessageHandler processes one Kafka message. Returning nil marks the
// message as consumed.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a consumer group and hands every message to a handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topics  []string
	log     *logging.Logger
}

// NewConsumer joins the configured consumer group.
func NewConsumer(cfg config.KafkaConfig, handler MessageHandler, log *logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	sc.ClientID = version.Name
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("joining consumer group %s: %w", cfg.GroupID, err)
	}
	return newConsumer(group, []string{cfg.Topic}, handler, log), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, handler MessageHandler, log *logging.Logger) *Consumer {
	return &Consumer{group: group, handler: handler, topics: topics, log: log.Sub("notify")}
}

// Run consumes until ctx is cancelled or the group fails. Rebalances
// end a Consume call; Run simply joins again.
func (c *Consumer) Run(ctx context.Context) error {
	go c.logErrors(ctx)

	c.log.Info().Strs("topics", c.topics).Msg("notification consumer started")
	for {
		err := c.group.Consume(ctx, c.topics, groupHandler{handler: c.handler, log: c.log})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consuming %v: %w", c.topics, err)
		}
	}
}

func (c *Consumer) logErrors(ctx context.Context) {
	errs := c.group.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.log.Warn().Err(err).Msg("consumer group error")
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	log     *logging.Logger
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handler.Handle(sess.Context(), msg); err != nil {
			h.log.Warn().Err(err).
				Str("topic", msg.Topic).
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("notification not handled, leaving unmarked")
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
