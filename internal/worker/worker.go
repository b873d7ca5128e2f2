package worker

import (
	"context"
	"fmt"
	"time"

	"reservation-service/internal/broker"
	"reservation-service/internal/models"
	"reservation-service/internal/redisclient"
	"reservation-service/internal/service"
	"reservation-service/internal/store"
	"reservation-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockWorker consumes reservation events and performs the stock
// deduction the data-access layer deliberately leaves out. Finished
// reservations commit their reserved quantities; events are processed at
// most once via the processed_events table.
type StockWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	store          *store.Store
	stock          *service.StockClient
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewStockWorker creates a new stock worker
func NewStockWorker(
	consumer *broker.Consumer,
	store *store.Store,
	stock *service.StockClient,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *StockWorker {
	w := &StockWorker{
		consumer:       consumer,
		store:          store,
		stock:          stock,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnReservationFinished(w.handleReservationFinished)
	eventHandler.OnItemRemoved(w.handleItemRemoved)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	w.logger.Info("Stopping stock worker")
	return w.consumer.Close()
}

// handleItemRemoved records cart removals for the audit trail. The stock
// release itself happens synchronously when the item is deleted.
func (w *StockWorker) handleItemRemoved(ctx context.Context, event *models.ItemRemovedEvent) error {
	w.logger.Info("Cart item removed",
		zap.Int64("reservation_id", event.ReservationID),
		zap.Int64("item_id", event.ItemID),
		zap.Int64("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity))
	return nil
}

// handleReservationFinished commits the stock deduction for every
// line-item of a finished reservation
func (w *StockWorker) handleReservationFinished(ctx context.Context, event *models.ReservationFinishedEvent) error {
	ctx, span := util.StartSpan(ctx, "StockWorker.handleReservationFinished")
	defer span.End()

	// fast-path dedupe via Redis, with the processed_events table as the
	// durable source of truth
	if seen, err := w.redis.CheckIdempotencyKey(ctx, event.EventID); err == nil && seen {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Committing stock for finished reservation",
		zap.Int64("reservation_id", event.ReservationID),
		zap.Int("items", len(event.Items)))

	for _, item := range event.Items {
		if err := w.stock.CommitStock(ctx, item.ProductID, item.Quantity); err != nil {
			util.StockCommitsFailedTotal.WithLabelValues("commit_error").Inc()
			w.logger.Error("Failed to commit stock",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		util.StockCommitsTotal.Inc()
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	if err := w.redis.SetIdempotencyKey(ctx, event.EventID, 1, 24*time.Hour); err != nil {
		w.logger.Warn("Failed to cache idempotency key", zap.Error(err))
	}

	committed := &models.StockCommittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockCommitted,
			Timestamp: time.Now(),
		},
		ReservationID: event.ReservationID,
	}
	if err := w.eventPublisher.PublishStockCommitted(ctx, committed); err != nil {
		w.logger.Error("Failed to publish StockCommitted event", zap.Error(err))
	}

	return nil
}
