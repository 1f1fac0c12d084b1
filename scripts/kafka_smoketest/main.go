package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/crowdpledge/infra/eventbus"
	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// RunSmokeTest publishes a pledge event through the Kafka event bus and
// reads it back to verify the local cluster and the envelope format.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "crowdpledge-smoketest"
	}

	cfg := infraeventbus.DefaultKafkaConfig()
	topic := infraeventbus.TopicName(cfg.TopicPrefix, events.EventTypePledgePaid)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", strings.Split(brokers, ",")[0])
	if err != nil {
		logger.Error("dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()
	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		logger.Error("create topic failed", "topic", topic, "error", err)
		return err
	}

	bus, err := infraeventbus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	txnID := fmt.Sprintf("STXNSMOKE%011d", time.Now().Unix()%1e11)
	sent := events.PledgePaid{
		PledgeEvent: events.NewPledgeEvent(1, txnID, 1, 1, decimal.NewFromInt(1), "USD"),
	}
	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("publish failed", "topic", topic, "error", err)
		return err
	}
	logger.Info("published", "topic", topic, "txn_id", txnID)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     strings.Split(brokers, ","),
		GroupID:     groupID,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	defer func() { _ = r.Close() }()

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			logger.Error("fetch failed", "topic", topic, "error", err)
			return err
		}
		_ = r.CommitMessages(ctx, msg)
		if string(msg.Key) != txnID {
			continue
		}
		evt, err := infraeventbus.DecodeEnvelope(msg.Value)
		if err != nil {
			return err
		}
		paid, ok := evt.(*events.PledgePaid)
		if !ok || paid.TxnID != txnID {
			return errors.New("consumed event does not match the published one")
		}
		logger.Info("consumed", "topic", topic, "txn_id", paid.TxnID)
		break
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
