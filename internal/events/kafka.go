package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, err
	}

	logger.Info("kafka publisher initialized", "brokers", brokers, "topic", topic)

	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

// NewKafkaPublisherWithProducer wraps an existing producer (used by tests with sarama mocks).
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Key()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to send event to kafka", "error", err)
		return err
	}

	p.logger.DebugContext(ctx, "event sent to kafka", "topic", p.topic, "partition", partition, "offset", offset, "key", event.Key())
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
