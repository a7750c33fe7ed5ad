package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
)

// StatusChangedEvent is the message written to Kafka, keyed by entity id so
// every change of one record lands on the same partition in order.
type StatusChangedEvent struct {
	EventType  string              `json:"event_type"`
	EntityType models.EntityType   `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	Source     models.ChangeSource `json:"source"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Version = sarama.V2_1_0_0

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaWithProducer(p, topic), nil
}

func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (k *Kafka) StatusChanged(_ context.Context, c models.StatusChange) error {
	ev := StatusChangedEvent{
		EventType:  "dragonpay.status.changed",
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		From:       string(c.From),
		To:         string(c.To),
		Source:     c.Source,
		OccurredAt: c.CreatedAt,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(c.EntityID),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (k *Kafka) Close() error { return k.producer.Close() }
