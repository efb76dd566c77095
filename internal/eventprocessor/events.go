// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package eventprocessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Message metadata keys.
const (
	MetadataEventType     = "event_type"
	MetadataAggregateID   = "aggregate_id"
	MetadataCorrelationID = "correlation_id"
)

var (
	// ErrInvalidEvent is returned for events missing a required field.
	ErrInvalidEvent = errors.New("invalid domain event")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("event publisher is closed")
)

// DomainEvent is a fact emitted by a core component.
type DomainEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewDomainEvent builds an event with a fresh id and an encoded payload.
func NewDomainEvent(eventType, aggregateID string, payload any, at time.Time) (*DomainEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		raw = data
	}
	ev := &DomainEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		OccurredAt:  at.UTC(),
	}
	return ev, ev.Validate()
}

// Validate checks required fields.
func (e *DomainEvent) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	case e.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	case e.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}
	return nil
}

// ToMessage encodes the event as a Watermill message whose UUID is the
// event id.
func (e *DomainEvent) ToMessage() (*message.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(e.ID, data)
	msg.Metadata.Set(MetadataEventType, e.Type)
	msg.Metadata.Set(MetadataAggregateID, e.AggregateID)
	return msg, nil
}

// EventFromMessage decodes a message produced by ToMessage.
func EventFromMessage(msg *message.Message) (*DomainEvent, error) {
	var ev DomainEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event %s: %w", msg.UUID, err)
	}
	if ev.ID == "" {
		ev.ID = msg.UUID
	}
	if ev.Type == "" {
		ev.Type = msg.Metadata.Get(MetadataEventType)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
