// Package kafka streams committed parcel events to a Kafka topic for downstream
// consumers (analytics, billing). Messages are keyed by parcel ID so every event
// of one parcel lands on the same partition in commit order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/pkg/errs"

	"github.com/IBM/sarama"
)

// DefaultParcelEventsTopic is used when no topic is configured.
const DefaultParcelEventsTopic = "parcel-events"

type ParcelEventProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewConfig returns the producer settings used in production.
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Net.DialTimeout = 10 * time.Second
	config.Net.ReadTimeout = 10 * time.Second
	config.Net.WriteTimeout = 10 * time.Second
	return config
}

// NewParcelEventProducer connects to the comma separated broker list.
func NewParcelEventProducer(brokers string, topic string, logger *slog.Logger) (*ParcelEventProducer, error) {
	brokerList := splitBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, errs.NewValueIsRequiredError("brokers")
	}

	producer, err := sarama.NewSyncProducer(brokerList, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewParcelEventProducerWith(producer, topic, logger)
}

// NewParcelEventProducerWith wraps an existing producer.
func NewParcelEventProducerWith(producer sarama.SyncProducer, topic string, logger *slog.Logger) (*ParcelEventProducer, error) {
	if producer == nil {
		return nil, errs.NewValueIsRequiredError("producer")
	}
	if topic == "" {
		topic = DefaultParcelEventsTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParcelEventProducer{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "ParcelEventProducer"),
	}, nil
}

// Publish blocks until the brokers acknowledge the message. The channel list is
// dropped from the payload; it only matters to the realtime notifier.
func (p *ParcelEventProducer) Publish(_ context.Context, event events.Event) error {
	event.Channels = nil
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ParcelID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
		Timestamp: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("send to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("parcel event sent",
		"type", event.Type,
		"parcel_id", event.ParcelID,
		"partition", partition,
		"offset", offset)
	return nil
}

func (p *ParcelEventProducer) Close() error {
	return p.producer.Close()
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
