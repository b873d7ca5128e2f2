package store

import (
	"context"
	"database/sql"
	"fmt"

	"reservation-service/internal/models"
)

// Each method here issues exactly one parameterized statement. The store
// does no retries and opens no transactions; failures propagate to the
// caller as-is.

// CreateReservation inserts a new reservation. Parameters are bound in
// (user id, date, status) order. The generated id and timestamp are
// populated on the passed record.
func (s *Store) CreateReservation(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (user_id, created_at, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, res, query,
		res.UserID, res.CreatedAt, res.Status)
}

// GetReservations retrieves all reservations joined with their owning
// user, ordered by username ascending
func (s *Store) GetReservations(ctx context.Context) ([]models.ReservationRow, error) {
	var rows []models.ReservationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT r.id, r.user_id, u.username, u.name AS user_name, r.status, r.created_at
		FROM reservations r
		INNER JOIN users u ON r.user_id = u.id
		ORDER BY u.username ASC`)
	return rows, err
}

// GetReservationByID retrieves a single reservation joined with its user
func (s *Store) GetReservationByID(ctx context.Context, id int64) (*models.ReservationRow, error) {
	var row models.ReservationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT r.id, r.user_id, u.username, u.name AS user_name, r.status, r.created_at
		FROM reservations r
		INNER JOIN users u ON r.user_id = u.id
		WHERE r.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SearchReservations retrieves reservations whose owning username
// contains the search term, case-insensitively
func (s *Store) SearchReservations(ctx context.Context, term string) ([]models.ReservationRow, error) {
	var rows []models.ReservationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT r.id, r.user_id, u.username, u.name AS user_name, r.status, r.created_at
		FROM reservations r
		INNER JOIN users u ON r.user_id = u.id
		WHERE u.username ILIKE $1
		ORDER BY u.username ASC`, "%"+term+"%")
	return rows, err
}

// UpdateReservationStatus sets the status of a reservation by id
func (s *Store) UpdateReservationStatus(ctx context.Context, reservationID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE reservations SET status = $1 WHERE id = $2",
		status, reservationID)
	return err
}

// GetOpenReservationByUser retrieves the user's PENDING reservation, if
// any. A nil reservation with nil error means the user has no open cart.
func (s *Store) GetOpenReservationByUser(ctx context.Context, userID int64) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.GetContext(ctx, &res, `
		SELECT id, user_id, status, created_at
		FROM reservations
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1`,
		userID, models.ReservationStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateItem inserts a new reservation line-item with its price snapshot
func (s *Store) CreateItem(ctx context.Context, item *models.ReservationItem) error {
	query := `
		INSERT INTO reservation_items (reservation_id, product_detail_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.ReservationID, item.ProductDetailID, item.Quantity, item.UnitPrice)
}

// GetItemsByReservationID retrieves all line-items of a reservation
// joined with product name and image
func (s *Store) GetItemsByReservationID(ctx context.Context, reservationID int64) ([]models.CartItemRow, error) {
	var rows []models.CartItemRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ri.id, p.id AS product_id, p.name AS product_name, p.image,
		       ri.quantity, ri.unit_price, r.created_at
		FROM reservation_items ri
		INNER JOIN reservations r ON ri.reservation_id = r.id
		INNER JOIN product_details pd ON ri.product_detail_id = pd.id
		INNER JOIN products p ON pd.product_id = p.id
		WHERE ri.reservation_id = $1`, reservationID)
	return rows, err
}

// UpdateItem sets product detail, quantity and unit price by item id
func (s *Store) UpdateItem(ctx context.Context, item *models.ReservationItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reservation_items
		SET product_detail_id = $1, quantity = $2, unit_price = $3
		WHERE id = $4`,
		item.ProductDetailID, item.Quantity, item.UnitPrice, item.ID)
	return err
}

// DeleteItem removes a line-item by id. The parent reservation is left
// untouched.
func (s *Store) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM reservation_items WHERE id = $1", itemID)
	return err
}

// GetItem retrieves a raw line-item row without joins
func (s *Store) GetItem(ctx context.Context, itemID int64) (*models.ReservationItem, error) {
	var item models.ReservationItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM reservation_items WHERE id = $1", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation item not found: %d", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByID retrieves a single line-item joined with product name and image
func (s *Store) GetItemByID(ctx context.Context, itemID int64) (*models.CartItemRow, error) {
	var row models.CartItemRow
	err := s.db.GetContext(ctx, &row, `
		SELECT ri.id, p.id AS product_id, p.name AS product_name, p.image,
		       ri.quantity, ri.unit_price, r.created_at
		FROM reservation_items ri
		INNER JOIN reservations r ON ri.reservation_id = r.id
		INNER JOIN product_details pd ON ri.product_detail_id = pd.id
		INNER JOIN products p ON pd.product_id = p.id
		WHERE ri.id = $1`, itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation item not found: %d", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetItemForForm retrieves a line-item joined across product, brand,
// discount and user for the edit form. The discounted price is the exact
// value of price * (1 - value/100); rounding is left to the caller.
func (s *Store) GetItemForForm(ctx context.Context, itemID int64) (*models.ItemFormRow, error) {
	var row models.ItemFormRow
	err := s.db.GetContext(ctx, &row, `
		SELECT u.username, p.name AS product_name, p.internal_code, p.supplier_ref,
		       b.name AS brand, ri.quantity, ri.unit_price,
		       d.value AS discount_value,
		       (p.price - (p.price * (d.value / 100))) AS discounted_price,
		       u.address
		FROM reservation_items ri
		INNER JOIN reservations r ON ri.reservation_id = r.id
		INNER JOIN product_details pd ON ri.product_detail_id = pd.id
		INNER JOIN products p ON pd.product_id = p.id
		INNER JOIN users u ON r.user_id = u.id
		LEFT JOIN brands b ON p.brand_id = b.id
		LEFT JOIN discounts d ON p.discount_id = d.id
		WHERE ri.id = $1`, itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation item not found: %d", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetItemDiscountDetail retrieves a line-item joined across product,
// brand, user and discount for the discount-detail view. Discount value
// and discounted price are rounded to 2 decimals; when the product has
// no discount the discounted price falls back to the unit price.
func (s *Store) GetItemDiscountDetail(ctx context.Context, itemID int64) (*models.ItemDiscountRow, error) {
	var row models.ItemDiscountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT ri.quantity, ri.unit_price,
		       b.name AS brand,
		       u.name AS user_name, u.email AS user_email, u.address AS user_address,
		       p.name AS product_name,
		       d.name AS discount_name,
		       ROUND(d.value, 2) AS discount_value,
		       CASE
		           WHEN d.value IS NOT NULL THEN ROUND(ri.unit_price * (1 - d.value / 100), 2)
		           ELSE ri.unit_price
		       END AS discounted_price
		FROM reservation_items ri
		INNER JOIN product_details pd ON ri.product_detail_id = pd.id
		INNER JOIN products p ON pd.product_id = p.id
		INNER JOIN brands b ON p.brand_id = b.id
		INNER JOIN reservations r ON ri.reservation_id = r.id
		INNER JOIN users u ON r.user_id = u.id
		LEFT JOIN discounts d ON p.discount_id = d.id
		WHERE ri.id = $1`, itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation item not found: %d", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
