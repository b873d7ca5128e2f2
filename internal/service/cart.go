package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservation-service/internal/broker"
	"reservation-service/internal/models"
	"reservation-service/internal/store"
	"reservation-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNoOpenReservation is returned when the user has no PENDING cart
	ErrNoOpenReservation = errors.New("no open reservation for user")
	// ErrInsufficientStock is returned when a requested quantity exceeds
	// the available stock
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	// ErrEmptyCart is returned when finishing an order with no line-items
	ErrEmptyCart = errors.New("reservation has no items")
	// ErrForbidden is returned when a line-item does not belong to the
	// caller's open reservation
	ErrForbidden = errors.New("item does not belong to the open reservation")
)

// CartService implements the cart actions behind the action-dispatch
// endpoint: readDetail, updateDetail, deleteDetail, getExistencias and
// finishOrder, plus addDetail/startOrder for populating the cart.
type CartService struct {
	store          *store.Store
	stock          *StockClient
	eventPublisher *broker.EventPublisher
	maxQuantity    int
	logger         *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	store *store.Store,
	stock *StockClient,
	eventPublisher *broker.EventPublisher,
	maxQuantity int,
) *CartService {
	return &CartService{
		store:          store,
		stock:          stock,
		eventPublisher: eventPublisher,
		maxQuantity:    maxQuantity,
		logger:         util.GetLogger(),
	}
}

// StartOrder returns the user's open reservation, creating a PENDING one
// when none exists
func (s *CartService) StartOrder(ctx context.Context, userID int64) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "CartService.StartOrder")
	defer span.End()

	res, err := s.store.GetOpenReservationByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open reservation: %w", err)
	}
	if res != nil {
		return res, nil
	}

	res = &models.Reservation{
		UserID:    userID,
		Status:    models.ReservationStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	util.ReservationsCreatedTotal.Inc()
	s.logger.Info("Reservation opened",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", userID))

	event := &models.ReservationCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationCreated,
			Timestamp: time.Now(),
		},
		ReservationID: res.ID,
		UserID:        userID,
	}
	if err := s.eventPublisher.PublishReservationCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationCreated event", zap.Error(err))
	}

	return res, nil
}

// ReadDetail returns the line-items of the user's open reservation
func (s *CartService) ReadDetail(ctx context.Context, userID int64) ([]models.CartItemRow, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ReadDetail")
	defer span.End()

	res, err := s.store.GetOpenReservationByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open reservation: %w", err)
	}
	if res == nil {
		return nil, ErrNoOpenReservation
	}

	return s.store.GetItemsByReservationID(ctx, res.ID)
}

// AddDetail adds a product to the user's cart, snapshotting the current
// (discounted, when applicable) catalog price as the unit price. The
// open reservation is created on first add.
func (s *CartService) AddDetail(ctx context.Context, userID, productDetailID int64, quantity int) (*models.ReservationItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddDetail")
	defer span.End()

	if quantity < 1 || quantity > s.maxQuantity {
		return nil, fmt.Errorf("invalid quantity: %d", quantity)
	}

	productID, err := s.store.GetProductIDByDetail(ctx, productDetailID)
	if err != nil {
		return nil, err
	}

	if err := s.validateStock(ctx, productID, quantity); err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	unitPrice := product.Price
	if product.DiscountID != nil {
		discount, err := s.store.GetDiscountByID(ctx, *product.DiscountID)
		if err != nil {
			return nil, err
		}
		unitPrice = models.DiscountedPrice(product.Price, discount.Value)
	}

	res, err := s.StartOrder(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &models.ReservationItem{
		ReservationID:   res.ID,
		ProductDetailID: productDetailID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create reservation item: %w", err)
	}

	if ok, err := s.stock.ReserveStock(ctx, productID, quantity); err != nil {
		s.logger.Error("Failed to mirror cart add into stock reservation",
			zap.Int64("product_id", productID), zap.Error(err))
	} else if !ok {
		s.logger.Warn("Stock reservation rejected after validation",
			zap.Int64("product_id", productID), zap.Int("quantity", quantity))
	}

	return item, nil
}

// UpdateDetail changes the quantity of a line-item after re-validating it
// against available stock. The unit price snapshot is preserved.
func (s *CartService) UpdateDetail(ctx context.Context, userID, itemID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateDetail")
	defer span.End()

	if quantity < 1 || quantity > s.maxQuantity {
		util.StockValidationFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return fmt.Errorf("invalid quantity: %d", quantity)
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	productID, err := s.store.GetProductIDByDetail(ctx, item.ProductDetailID)
	if err != nil {
		return err
	}

	delta := quantity - item.Quantity
	if delta > 0 {
		if err := s.validateStock(ctx, productID, delta); err != nil {
			return err
		}
		if ok, err := s.stock.ReserveStock(ctx, productID, delta); err != nil {
			s.logger.Error("Failed to reserve stock delta", zap.Error(err))
		} else if !ok {
			util.StockValidationFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return ErrInsufficientStock
		}
	} else if delta < 0 {
		if err := s.stock.ReleaseStock(ctx, productID, -delta); err != nil {
			s.logger.Error("Failed to release stock delta", zap.Error(err))
		}
	}

	item.Quantity = quantity
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to update reservation item: %w", err)
	}

	s.logger.Info("Cart item updated",
		zap.Int64("item_id", itemID),
		zap.Int("quantity", quantity))
	return nil
}

// DeleteDetail removes a line-item from the user's open reservation and
// releases its stock reservation. The reservation itself is never
// deleted.
func (s *CartService) DeleteDetail(ctx context.Context, userID, itemID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.DeleteDetail")
	defer span.End()

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete reservation item: %w", err)
	}

	productID, err := s.store.GetProductIDByDetail(ctx, item.ProductDetailID)
	if err == nil {
		if err := s.stock.ReleaseStock(ctx, productID, item.Quantity); err != nil {
			s.logger.Error("Failed to release stock for removed item", zap.Error(err))
		}
	}

	event := &models.ItemRemovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemRemoved,
			Timestamp: time.Now(),
		},
		ReservationID: item.ReservationID,
		ItemID:        itemID,
		ProductID:     productID,
		Quantity:      item.Quantity,
	}
	if err := s.eventPublisher.PublishItemRemoved(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemRemoved event", zap.Error(err))
	}

	return nil
}

// GetExistencias returns the available stock for a product
func (s *CartService) GetExistencias(ctx context.Context, productID int64) (int, error) {
	return s.stock.GetStock(ctx, productID)
}

// FinishOrder flips the user's open reservation to FINISHED and publishes
// the event the stock worker deducts from. The data-access write remains
// a single statement; the deduction happens downstream.
func (s *CartService) FinishOrder(ctx context.Context, userID int64) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "CartService.FinishOrder")
	defer span.End()

	res, err := s.store.GetOpenReservationByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open reservation: %w", err)
	}
	if res == nil {
		return nil, ErrNoOpenReservation
	}

	rows, err := s.store.GetItemsByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read reservation items: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.store.UpdateReservationStatus(ctx, res.ID, models.ReservationStatusFinished); err != nil {
		return nil, fmt.Errorf("failed to finish reservation: %w", err)
	}
	res.Status = models.ReservationStatusFinished

	util.ReservationsFinishedTotal.Inc()
	s.logger.Info("Reservation finished",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", userID))

	items := make([]models.ReservedItemData, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.ReservedItemData{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
	}

	event := &models.ReservationFinishedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReservationFinished,
			Timestamp: time.Now(),
		},
		ReservationID: res.ID,
		UserID:        userID,
		Total:         models.CartTotal(rows),
		Items:         items,
	}
	if err := s.eventPublisher.PublishReservationFinished(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationFinished event", zap.Error(err))
	}

	return res, nil
}

// validateStock rejects quantities above the currently available stock
func (s *CartService) validateStock(ctx context.Context, productID int64, quantity int) error {
	available, err := s.stock.GetStock(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > available {
		util.StockValidationFailedTotal.WithLabelValues("insufficient_stock").Inc()
		return fmt.Errorf("%w: available=%d, requested=%d", ErrInsufficientStock, available, quantity)
	}
	return nil
}

// ownedItem loads a line-item and verifies it belongs to the caller's
// open reservation
func (s *CartService) ownedItem(ctx context.Context, userID, itemID int64) (*models.ReservationItem, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	res, err := s.store.GetOpenReservationByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNoOpenReservation
	}
	if item.ReservationID != res.ID {
		return nil, ErrForbidden
	}
	return item, nil
}

// CartSummary is a convenience aggregate for logging and tests
func CartSummary(rows []models.CartItemRow) (decimal.Decimal, int) {
	count := 0
	for _, row := range rows {
		count += row.Quantity
	}
	return models.CartTotal(rows), count
}
