package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes each feature of a collection as one Kafka message.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Load serializes and publishes every feature in a single WriteMessages call.
// Messages are keyed by coordinate so re-runs land on the same partition.
func (w *Writer) Load(ctx context.Context, fc domain.FeatureCollection) error {
	if len(fc.Features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(fc.Features))
	for i := range fc.Features {
		msg, err := serializeToMessage(fc.Features[i], fc.Metadata)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish features: %w", err)
	}
	w.logger.Info("features published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Feature into a Kafka message.
func serializeToMessage(f domain.Feature, meta domain.Metadata) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(featureKey(f)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(meta.Region)},
			{Key: "confidence", Value: []byte(f.Properties.Confidence)},
			{Key: "generated_at", Value: []byte(meta.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

func featureKey(f domain.Feature) string {
	return strconv.FormatFloat(f.Properties.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(f.Properties.Lon, 'f', -1, 64)
}
