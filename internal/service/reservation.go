package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reservation-service/internal/models"
	"reservation-service/internal/store"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

// ReservationService exposes the management-side reservation operations:
// create, list, get, search by username and status updates, plus the
// joined line-item reads used by the admin views.
type ReservationService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(store *store.Store) *ReservationService {
	return &ReservationService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Create inserts a reservation for a user with the given status
func (s *ReservationService) Create(ctx context.Context, userID int64, status string) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Create")
	defer span.End()

	if err := validateStatus(status); err != nil {
		return nil, err
	}

	res := &models.Reservation{
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	util.ReservationsCreatedTotal.Inc()
	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", userID),
		zap.String("status", status))
	return res, nil
}

// List returns all reservations ordered by the owning username
func (s *ReservationService) List(ctx context.Context) ([]models.ReservationRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.List")
	defer span.End()

	return s.store.GetReservations(ctx)
}

// Get returns one reservation joined with its user
func (s *ReservationService) Get(ctx context.Context, id int64) (*models.ReservationRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Get")
	defer span.End()

	return s.store.GetReservationByID(ctx, id)
}

// Search returns reservations whose username contains the term,
// case-insensitively. An empty term behaves like List.
func (s *ReservationService) Search(ctx context.Context, term string) ([]models.ReservationRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Search")
	defer span.End()

	return s.store.SearchReservations(ctx, strings.TrimSpace(term))
}

// UpdateStatus sets the status of a reservation
func (s *ReservationService) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, span := util.StartSpan(ctx, "ReservationService.UpdateStatus")
	defer span.End()

	if err := validateStatus(status); err != nil {
		return err
	}

	if err := s.store.UpdateReservationStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	s.logger.Info("Reservation status updated",
		zap.Int64("reservation_id", id),
		zap.String("status", status))
	return nil
}

// GetItem returns one line-item joined with product name and image
func (s *ReservationService) GetItem(ctx context.Context, itemID int64) (*models.CartItemRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.GetItem")
	defer span.End()

	return s.store.GetItemByID(ctx, itemID)
}

// GetItemForForm returns the joined row backing the item edit form,
// including the unrounded discounted catalog price
func (s *ReservationService) GetItemForForm(ctx context.Context, itemID int64) (*models.ItemFormRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.GetItemForForm")
	defer span.End()

	return s.store.GetItemForForm(ctx, itemID)
}

// GetItemDiscountDetail returns the discount-detail view of a line-item
// with 2-decimal rounding applied by the query
func (s *ReservationService) GetItemDiscountDetail(ctx context.Context, itemID int64) (*models.ItemDiscountRow, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.GetItemDiscountDetail")
	defer span.End()

	return s.store.GetItemDiscountDetail(ctx, itemID)
}

func validateStatus(status string) error {
	switch status {
	case models.ReservationStatusPending,
		models.ReservationStatusFinished,
		models.ReservationStatusCancelled:
		return nil
	}
	return fmt.Errorf("invalid reservation status: %q", status)
}
