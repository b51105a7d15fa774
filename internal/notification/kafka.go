package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes wallet events to a Kafka topic for downstream
// fan-out (push, email, in-app). Delivery semantics beyond the produce are
// the consumer's concern.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaNotifier builds a notifier producing to the given brokers/topic.
func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

// Send produces the message keyed by destination so one user's events stay
// ordered within a partition.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	payload, err := json.Marshal(map[string]string{
		"kind":           message.Kind,
		"destination":    message.Destination,
		"transaction_id": message.TransactionID,
		"body":           message.Body,
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(message.Destination), Value: payload}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("kafka notification failed", "kind", message.Kind, "error", err)
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
