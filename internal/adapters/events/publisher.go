package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

const EventTypeMilestoneReached = "goal.milestone_reached"

// KafkaPublisher writes milestone events as JSON, keyed by goal id so events of one goal stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              10,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishMilestone(ctx context.Context, event domain.MilestoneReachedEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish milestone event: %w", err)
	}

	slog.Info("milestone event published", "goal_id", event.GoalID, "label", event.Label, "event_id", event.EventID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func newMessage(event domain.MilestoneReachedEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.GoalID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeMilestoneReached)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}, nil
}

// LogPublisher stands in for Kafka when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishMilestone(ctx context.Context, event domain.MilestoneReachedEvent) error {
	p.logger.InfoContext(ctx, "milestone reached",
		"event_id", event.EventID,
		"goal_id", event.GoalID,
		"owner_id", event.OwnerID,
		"label", event.Label,
		"threshold", event.Threshold,
		"accumulated", event.Accumulated,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
