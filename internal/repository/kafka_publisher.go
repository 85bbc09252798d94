package repository

import (
	"context"
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher announces accepted signals on a topic, keyed by signal id.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
}

func NewKafkaPublisher(producer batchProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	if sig == nil {
		return fmt.Errorf("publish: nil signal")
	}
	msg := pkgkafka.Message{Key: []byte(sig.ID), Value: sig}
	if sig.Source != nil {
		msg.Headers = map[string]string{"source": *sig.Source}
	}
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{msg})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops everything. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Signal) error { return nil }
func (NopPublisher) Close() error                                  { return nil }

var (
	_ repository.Publisher = (*KafkaPublisher)(nil)
	_ repository.Publisher = NopPublisher{}
)
