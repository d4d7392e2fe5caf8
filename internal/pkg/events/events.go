package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Domain event names
const (
	SocietyApproved     = "society.approved"
	SocietyRejected     = "society.rejected"
	SocietyDeleted      = "society.deleted"
	MembershipApproved  = "membership.approved"
	EventCreated        = "event.created"
	RegistrationUpdated = "registration.updated"
	NewsPublished       = "news.published"
	PaymentPaid         = "payment.paid"
)

// Envelope is the JSON body of every published domain event
type Envelope struct {
	Name       string      `json:"name"`
	Key        int64       `json:"key"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Publisher emits domain events keyed by society id
type Publisher interface {
	Publish(ctx context.Context, name string, key int64, payload interface{}) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds kafka producer settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes domain events to a kafka topic
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a synchronous, hash-balanced kafka publisher
func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish sends one message; the key keeps a society's events ordered on one partition
func (p *KafkaPublisher) Publish(ctx context.Context, name string, key int64, payload interface{}) error {
	value, err := json.Marshal(Envelope{Name: name, Key: key, Payload: payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}

	msg := kafka.Message{
		Key:     []byte(strconv.FormatInt(key, 10)),
		Value:   value,
		Headers: []kafka.Header{{Key: "event", Value: []byte(name)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("event", name).Int64("key", key).Msg("Failed to publish domain event")
		return fmt.Errorf("failed to publish %s event: %w", name, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// LoggingPublisher logs domain events; used when no brokers are configured
type LoggingPublisher struct {
	logger zerolog.Logger
}

// NewLoggingPublisher creates a LoggingPublisher
func NewLoggingPublisher(logger zerolog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

// Publish logs the event
func (p *LoggingPublisher) Publish(ctx context.Context, name string, key int64, payload interface{}) error {
	p.logger.Info().Str("event", name).Int64("key", key).Interface("payload", payload).Msg("Domain event")
	return nil
}

// Close is a no-op
func (p *LoggingPublisher) Close() error {
	return nil
}

// PublishAsync publishes without blocking the caller and logs failures
func PublishAsync(p Publisher, logger zerolog.Logger, name string, key int64, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, name, key, payload); err != nil {
			logger.Warn().Err(err).Str("event", name).Msg("Domain event dropped")
		}
	}()
}
