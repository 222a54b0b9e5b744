package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the standard event wrapper for all Kafka messages published by
// the storefront.
type Envelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope creates an envelope with a generated ID and current timestamp.
func NewEnvelope(eventType, aggregateID, aggregateType string, data any) (*Envelope, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        sourceStorefront,
		Data:          dataBytes,
		Metadata:      make(map[string]string),
	}, nil
}

// Marshal serializes the envelope to JSON bytes.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData deserializes the event data payload into the given target.
func (e *Envelope) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
