package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// Kafka topics for storefront domain events.
const (
	TopicWishlistUpdated = "storefront.wishlist.updated"
	TopicCartUpdated     = "storefront.cart.updated"
	TopicAssetUploaded   = "storefront.asset.uploaded"
	TopicAssetDeleted    = "storefront.asset.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeList  = "list"
	AggregateTypeAsset = "asset"
)

const sourceStorefront = "storefront"

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
}

// DefaultProducerConfig returns sensible defaults for the Kafka producer.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
	}
}

// ListUpdatedData is the payload for wishlist.updated and cart.updated events.
type ListUpdatedData struct {
	UserID     string   `json:"user_id"`
	Collection string   `json:"collection"`
	ProductIDs []string `json:"product_ids"`
	Count      int      `json:"count"`
}

// AssetUploadedData is the payload for an asset.uploaded event.
type AssetUploadedData struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	Folder      string `json:"folder"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AssetDeletedData is the payload for an asset.deleted event.
type AssetDeletedData struct {
	Path string `json:"path"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger
}

// NewProducer creates a Kafka producer.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:  w,
		brokers: cfg.Brokers,
		logger:  logger,
	}
}

// publish sends an envelope to the given topic.
func (p *Producer) publish(ctx context.Context, topic string, envelope *Envelope) error {
	data, err := envelope.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(envelope.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.EventType)},
			{Key: "source", Value: []byte(envelope.Source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", envelope.EventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_type", envelope.EventType),
		slog.String("aggregate_id", envelope.AggregateID),
	)

	return nil
}

// PublishListUpdated publishes a wishlist.updated or cart.updated event for
// the given collection.
func (p *Producer) PublishListUpdated(ctx context.Context, collection domain.Collection, userID string, entries []domain.Entry) error {
	topic := TopicWishlistUpdated
	if collection == domain.CollectionCart {
		topic = TopicCartUpdated
	}

	data := ListUpdatedData{
		UserID:     userID,
		Collection: string(collection),
		ProductIDs: domain.ProductIDs(entries),
		Count:      domain.TotalCount(entries),
	}

	envelope, err := NewEnvelope(topic, userID, AggregateTypeList, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	return p.publish(ctx, topic, envelope)
}

// PublishAssetUploaded publishes an asset.uploaded event.
func (p *Producer) PublishAssetUploaded(ctx context.Context, data AssetUploadedData) error {
	envelope, err := NewEnvelope(TopicAssetUploaded, data.Path, AggregateTypeAsset, data)
	if err != nil {
		return fmt.Errorf("create asset.uploaded event: %w", err)
	}
	return p.publish(ctx, TopicAssetUploaded, envelope)
}

// PublishAssetDeleted publishes an asset.deleted event.
func (p *Producer) PublishAssetDeleted(ctx context.Context, path string) error {
	envelope, err := NewEnvelope(TopicAssetDeleted, path, AggregateTypeAsset, AssetDeletedData{Path: path})
	if err != nil {
		return fmt.Errorf("create asset.deleted event: %w", err)
	}
	return p.publish(ctx, TopicAssetDeleted, envelope)
}

// Ping checks Kafka broker connectivity by dialing the first reachable broker.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
