package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"reservation-service/internal/models"
	"reservation-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishReservationCreated publishes ReservationCreated event
func (ep *EventPublisher) PublishReservationCreated(ctx context.Context, event *models.ReservationCreatedEvent) error {
	key := fmt.Sprintf("reservation-%d", event.ReservationID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReservationFinished publishes ReservationFinished event
func (ep *EventPublisher) PublishReservationFinished(ctx context.Context, event *models.ReservationFinishedEvent) error {
	key := fmt.Sprintf("reservation-%d", event.ReservationID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishItemRemoved publishes ItemRemoved event
func (ep *EventPublisher) PublishItemRemoved(ctx context.Context, event *models.ItemRemovedEvent) error {
	key := fmt.Sprintf("reservation-%d", event.ReservationID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStockCommitted publishes StockCommitted event
func (ep *EventPublisher) PublishStockCommitted(ctx context.Context, event *models.StockCommittedEvent) error {
	key := fmt.Sprintf("reservation-%d", event.ReservationID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onReservationFinished func(context.Context, *models.ReservationFinishedEvent) error
	onItemRemoved         func(context.Context, *models.ItemRemovedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnReservationFinished registers a handler for ReservationFinished events
func (eh *EventHandler) OnReservationFinished(handler func(context.Context, *models.ReservationFinishedEvent) error) {
	eh.onReservationFinished = handler
}

// OnItemRemoved registers a handler for ItemRemoved events
func (eh *EventHandler) OnItemRemoved(handler func(context.Context, *models.ItemRemovedEvent) error) {
	eh.onItemRemoved = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeReservationFinished:
		if eh.onReservationFinished != nil {
			var event models.ReservationFinishedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReservationFinished event: %w", err)
			}
			return eh.onReservationFinished(ctx, &event)
		}

	case models.EventTypeItemRemoved:
		if eh.onItemRemoved != nil {
			var event models.ItemRemovedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ItemRemoved event: %w", err)
			}
			return eh.onItemRemoved(ctx, &event)
		}
	}

	return nil
}
