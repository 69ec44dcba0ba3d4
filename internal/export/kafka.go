package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// KafkaPublisher emits one event per scored customer so downstream retention
// workflows can react without polling the scored table.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	log    logger.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, log logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic, log: log}
}

// Name identifies the sink in batch logs.
func (p *KafkaPublisher) Name() string { return "kafka:" + p.topic }

// WriteScored publishes every scored customer, keyed by customer ID so a
// customer's events stay ordered within a partition.
func (p *KafkaPublisher) WriteScored(ctx context.Context, customers []models.ScoredCustomer) error {
	messages := make([]kafka.Message, 0, len(customers))
	for _, c := range customers {
		value, err := json.Marshal(c)
		if err != nil {
			return stderrors.NewPublishFailedError(p.topic, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(fmt.Sprintf("%d", c.CustomerID)),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return stderrors.NewPublishFailedError(p.topic, err)
	}

	p.log.Info("Published scored events", map[string]interface{}{
		"topic": p.topic,
		"count": len(customers),
	})
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
