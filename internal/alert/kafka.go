package alert

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// messageWriter is the subset of *kafka.Writer used by the sink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes alerts as JSON records keyed by window end time.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a writer for the brokers and topic in cfg.
func NewKafkaSink(cfg contract.AlertConfig) *KafkaSink {
	return newKafkaSink(&kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.Timeout,
	})
}

func newKafkaSink(w messageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// Name implements contract.AlertSink.
func (s *KafkaSink) Name() schema.AlertChannel { return schema.KafkaChannel }

// Send implements contract.AlertSink.
func (s *KafkaSink) Send(ctx context.Context, alert schema.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.WindowEnd.Format(contract.DateTimeFormat)),
		Value: payload,
		Time:  alert.RaisedAt,
	})
}

// Close implements contract.AlertSink.
func (s *KafkaSink) Close() error { return s.writer.Close() }
