package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"lead-intake/internal/models"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaNotifier publishes each lead as a JSON event for downstream CRM consumers
type KafkaNotifier struct {
	producer Producer
	topic    string
	source   string
}

func NewKafkaNotifier(producer Producer, topic, source string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, source: source}
}

func (n *KafkaNotifier) Name() string {
	return "kafka"
}

func (n *KafkaNotifier) Configured() bool {
	return n.producer != nil && n.topic != ""
}

func (n *KafkaNotifier) Send(ctx context.Context, lead *models.Lead) error {
	value, err := json.Marshal(lead.Event(n.source))
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}

	headers := map[string]string{
		"content-type": "application/json",
		"event-type":   "lead.created",
	}
	if err := n.producer.ProduceMessage(ctx, n.topic, []byte(lead.ID.String()), value, headers); err != nil {
		return fmt.Errorf("kafka delivery: %w", err)
	}
	return nil
}
