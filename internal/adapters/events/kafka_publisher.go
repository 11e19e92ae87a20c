// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Kafka topic names per event family.
type Topics struct {
	Orders    string
	Locations string
}

// KafkaPublisher writes event envelopes with a synchronous producer.
// Messages are keyed by aggregate id so one order's events stay in
// partition order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topics   Topics
	log      *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topics Topics, log *logrus.Logger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{producer: producer, topics: topics, log: log}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, ev domain.OrderStatusChanged) error {
	return p.publish(ctx, p.topics.Orders, ev.OrderID.String(), domain.EventTypeOrderStatusChanged, ev)
}

func (p *KafkaPublisher) PublishStopCompleted(ctx context.Context, ev domain.StopCompleted) error {
	return p.publish(ctx, p.topics.Orders, ev.OrderID.String(), domain.EventTypeStopCompleted, ev)
}

func (p *KafkaPublisher) PublishLocationUpdated(ctx context.Context, ev domain.LocationUpdated) error {
	return p.publish(ctx, p.topics.Locations, ev.DriverID.String(), domain.EventTypeLocationUpdated, ev)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, typ domain.EventType, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope := domain.Event{
		ID:        uuid.New(),
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("publish %s: encode event: %w", typ, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}

	p.log.WithFields(logrus.Fields{
		"type":      typ,
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
	}).Debug("event published")

	return nil
}
