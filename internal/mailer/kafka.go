package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-io-social/pkg/log"
)

var ErrDeliveryTimeout = errors.New("mail delivery timed out")

// outboxRecord is the payload consumed by the mail relay.
type outboxRecord struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// KafkaMailer hands mail to a relay through a Kafka outbox topic and waits
// for the broker acknowledgement.
type KafkaMailer struct {
	producer *kafka.Producer
	topic    string
	from     string
	timeout  time.Duration
}

func NewKafkaMailer(brokers, topic, from string, timeout time.Duration) (*KafkaMailer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("mailer kafka brokers must be set")
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaMailer{producer: p, topic: topic, from: from, timeout: timeout}, nil
}

// Send produces the message keyed by recipient and blocks until the
// delivery report arrives.
func (m *KafkaMailer) Send(ctx context.Context, msg Message) error {
	l := log.Ctx(ctx)

	data, err := json.Marshal(outboxRecord{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		Body:     msg.Body,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	delivery := make(chan kafka.Event, 1)
	err = m.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &m.topic, Partition: kafka.PartitionAny},
		Key:            []byte(msg.To),
		Value:          data,
	}, delivery)
	if err != nil {
		return fmt.Errorf("failed to produce mail: %w", err)
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case e := <-delivery:
		km, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if km.TopicPartition.Error != nil {
			return fmt.Errorf("mail delivery failed: %w", km.TopicPartition.Error)
		}
		l.Debug().Str(log.FieldEmail, msg.To).Int64("offset", int64(km.TopicPartition.Offset)).Msg("mail queued")
		return nil
	case <-timer.C:
		return ErrDeliveryTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *KafkaMailer) Close() error {
	m.producer.Flush(5000)
	m.producer.Close()
	return nil
}
