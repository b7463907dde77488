// Package notify publishes domain events to the external notification
// transport. The core never waits for delivery confirmation.
package notify

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/config"
	"digiarchive/internal/event"
)

// Notifier publishes one event to the transport.
type Notifier interface {
	Publish(ctx context.Context, ev event.Event) error
	Close()
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, ev event.Event) error { return nil }
func (Noop) Close()                                            {}

// KafkaNotifier publishes events as JSON messages keyed by entity id, so all
// events of one document land in one partition in order.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
	log      *logrus.Logger
}

var _ Notifier = (*KafkaNotifier)(nil)

// NewKafka creates a Kafka-backed notifier.
func NewKafka(cfg config.KafkaConfig, log *logrus.Logger) (*KafkaNotifier, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return nil, err
	}
	n := &KafkaNotifier{producer: producer, topic: cfg.Topic, log: log}
	go n.drainDeliveryReports()
	return n, nil
}

// Publish enqueues the event with the producer; delivery is asynchronous.
func (n *KafkaNotifier) Publish(ctx context.Context, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &n.topic, Partition: kafka.PartitionAny},
		Key:            []byte(ev.EntityID),
		Value:          payload,
	}, nil)
}

// Close flushes outstanding messages and closes the producer.
func (n *KafkaNotifier) Close() {
	n.producer.Flush(5000)
	n.producer.Close()
}

func (n *KafkaNotifier) drainDeliveryReports() {
	for e := range n.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			n.log.WithError(m.TopicPartition.Error).Warn("event delivery failed")
		}
	}
}
