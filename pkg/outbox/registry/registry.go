// Package registry knows, for every outbox event type, which aggregate it
// belongs to, which Pub/Sub topic carries it and how to decode its payload.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/config"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is an outbox row that passed validation, ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that can never publish; the dispatcher dead-letters it.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func nonRetryable(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

// route registers every listed event type under one aggregate and topic with payload type T.
func route[T any](r *EventRegistry, topic string, aggregate enums.OutboxAggregateType, types ...enums.OutboxEventType) {
	for _, t := range types {
		r.entries[t] = EventDescriptor{
			EventType:      t,
			AggregateType:  aggregate,
			Topic:          topic,
			PayloadFactory: func() any { return new(T) },
		}
	}
}

// NewEventRegistry wires indent and issue lifecycle events to the indents
// topic, ledger adjustments to the inventory topic and anything a person
// should be told about (discrepancies, low stock) to the notification topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	for name, topic := range map[string]string{
		"indents":      cfg.IndentsTopic,
		"inventory":    cfg.InventoryTopic,
		"notification": cfg.NotificationTopic,
	} {
		if topic == "" {
			return nil, fmt.Errorf("%s topic is required", name)
		}
	}

	r := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}

	route[payloads.IndentCreatedEvent](r, cfg.IndentsTopic, enums.AggregateIndent,
		enums.EventIndentCreated)
	route[payloads.IndentStatusEvent](r, cfg.IndentsTopic, enums.AggregateIndent,
		enums.EventIndentSubmitted,
		enums.EventIndentDecided,
		enums.EventIndentCancelled,
		enums.EventIndentFulfillmentProgressed,
		enums.EventIndentDeactivated)
	route[payloads.MaterialIssuedEvent](r, cfg.IndentsTopic, enums.AggregateMaterialIssue,
		enums.EventMaterialIssued)
	route[payloads.MaterialIssueStatusEvent](r, cfg.IndentsTopic, enums.AggregateMaterialIssue,
		enums.EventMaterialIssueDispatched,
		enums.EventMaterialIssueInTransit,
		enums.EventMaterialIssueCancelled,
		enums.EventMaterialIssueReceived)
	route[payloads.InventoryAdjustedEvent](r, cfg.InventoryTopic, enums.AggregateInventoryRecord,
		enums.EventInventoryAdjusted)
	route[payloads.ReceiptDiscrepancyEvent](r, cfg.NotificationTopic, enums.AggregateMaterialIssue,
		enums.EventReceiptDiscrepancyReported)
	route[payloads.InventoryLowStockEvent](r, cfg.NotificationTopic, enums.AggregateInventoryRecord,
		enums.EventInventoryLowStock)

	return r, nil
}

// Topics lists the distinct topics events can be published to, sorted.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	for _, d := range r.entries {
		seen[d.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable: a malformed row will not fix itself.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, nonRetryable("missing aggregate_id")
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, nonRetryable("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nonRetryable("payload missing for %s", event.EventType)
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, nonRetryable("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

// IsNonRetryable reports whether err, or anything it wraps, is a NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}
