package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

// KafkaNotificationPublisher delivers notification snapshots to the topic
// the attendance bot consumes.
type KafkaNotificationPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaNotificationPublisher(bootstrapServers, topic string) (*KafkaNotificationPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Notification Kafka producer created")

	return &KafkaNotificationPublisher{producer: p, topic: topic}, nil
}

func (p *KafkaNotificationPublisher) Publish(ctx context.Context, n domain.Notification) error {
	msg, err := newMessage(&p.topic, n)
	if err != nil {
		return err
	}

	// The delivery report arrives on the channel given to Produce; reports
	// only go to Events() when no channel is passed.
	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		report, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if report.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", report.TopicPartition.Error)
		}
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newMessage builds the Kafka message for one snapshot, keyed by invitation
// so one invitation's snapshots stay ordered within a partition.
func newMessage(topic *string, n domain.Notification) (*kafka.Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: topic, Partition: kafka.PartitionAny},
		Key:            []byte(n.InvitacionID),
		Value:          payload,
	}, nil
}

func (p *KafkaNotificationPublisher) Close() {
	log.Info("Closing notification Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
