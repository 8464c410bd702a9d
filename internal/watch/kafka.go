package watch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"flood-geoservice/internal/models"
)

// alertMessage is the flat JSON shape downstream notification consumers
// expect on the alert topic.
type alertMessage struct {
	AlertID     string `json:"alert_id"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Sent        string `json:"sent"`
}

// KafkaPublisher writes new alerts to the alert topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, alert models.Alert) error {
	msg := alertMessage{
		AlertID:     alert.Identifier,
		Event:       alert.Info.Event,
		Severity:    alert.Info.Severity,
		Headline:    alert.Info.Headline,
		Description: alert.Info.Description,
		Effective:   alert.Info.Effective,
		Expires:     alert.Info.Expires,
		Sent:        alert.Sent,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Identifier),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write alert message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
