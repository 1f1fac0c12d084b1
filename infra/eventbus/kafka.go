package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig holds configuration for the Kafka publisher.
type KafkaConfig struct {
	TopicPrefix  string
	WriteTimeout time.Duration
}

// DefaultKafkaConfig returns default configuration for KafkaEventBus.
func DefaultKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		TopicPrefix:  "crowdpledge.events",
		WriteTimeout: 10 * time.Second,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventBus dispatches events to local handlers and publishes them to a
// Kafka topic per event type for downstream consumers.
type KafkaEventBus struct {
	local  *MemoryEventBus
	writer messageWriter
	config *KafkaConfig
	logger *slog.Logger
}

// NewWithKafka creates a Kafka-backed event bus.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaConfig) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaConfig()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           config.WriteTimeout,
	}
	return newKafkaEventBus(writer, logger, config), nil
}

func newKafkaEventBus(w messageWriter, logger *slog.Logger, config *KafkaConfig) *KafkaEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = DefaultKafkaConfig().TopicPrefix
	}
	return &KafkaEventBus{
		local:  NewWithMemory(logger),
		writer: w,
		config: config,
		logger: logger.With("bus", "kafka"),
	}
}

// Register registers an in-process handler for a specific event type.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.local.Register(eventType, handler)
}

// Emit runs local handlers and publishes the event. Events are keyed by
// transaction code so all events of one transaction share a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	if err := b.local.Emit(ctx, event); err != nil {
		return err
	}
	value, err := buildEnvelope(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: TopicName(b.config.TopicPrefix, events.EventType(event.Type())),
		Key:   []byte(messageKey(event)),
		Value: value,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		b.logger.Error("kafka publish failed", "event_type", event.Type(), "error", err)
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (b *KafkaEventBus) Close() error {
	return b.writer.Close()
}

func messageKey(event events.Event) string {
	switch e := event.(type) {
	case events.PledgePaid:
		return e.TxnID
	case events.PledgeCaptured:
		return e.ParentTxnID
	case events.PledgeVoided:
		return e.TxnID
	}
	return event.Type()
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TopicName returns the topic an event type is published to.
func TopicName(prefix string, eventType events.EventType) string {
	return strings.TrimSuffix(prefix, ".") + "." + strings.ToLower(eventType.String())
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
