// Package kafka publishes snapshot notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/region-weather/internal/config"
	"github.com/couchcryptid/region-weather/internal/domain"
)

// EventSnapshotApplied is the event_type header of every published message.
const EventSnapshotApplied = "snapshot.applied"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces a message for every applied snapshot.
// It implements synchronizer.SnapshotPublisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSnapshotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSnapshot serializes snap and writes it keyed by date and time, so
// every notification for the same selection lands on the same partition.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return nil
	}
	msg, err := serializeSnapshot(snap, uuid.NewString())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s %s: %w", snap.Date, snap.Time, err)
	}
	p.logger.Debug("snapshot published", "date", snap.Date, "time", snap.Time, "regions", snap.Len())
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// SnapshotEvent is the JSON payload of a snapshot.applied message.
type SnapshotEvent struct {
	EventID   string                    `json:"event_id"`
	Date      string                    `json:"date"`
	Time      string                    `json:"time"`
	AppliedAt time.Time                 `json:"applied_at"`
	Resolved  int                       `json:"resolved"`
	Expected  int                       `json:"expected"`
	Coverage  float64                   `json:"coverage"`
	Readings  map[string]domain.Reading `json:"readings"`
}

// serializeSnapshot marshals a snapshot into a Kafka message.
func serializeSnapshot(snap *domain.Snapshot, eventID string) (kafkago.Message, error) {
	event := SnapshotEvent{
		EventID:   eventID,
		Date:      snap.Date,
		Time:      snap.Time,
		AppliedAt: snap.AppliedAt.UTC(),
		Resolved:  snap.Len(),
		Expected:  snap.Expected,
		Coverage:  domain.Coverage(snap.Len(), snap.Expected),
		Readings:  make(map[string]domain.Reading, snap.Len()),
	}
	snap.Each(func(code string, r domain.Reading) {
		event.Readings[code] = r
	})

	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.Date + "|" + snap.Time),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventSnapshotApplied)},
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "applied_at", Value: []byte(event.AppliedAt.Format(time.RFC3339))},
		},
	}, nil
}
