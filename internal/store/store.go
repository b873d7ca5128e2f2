package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reservation-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrInsufficientStock is returned when a reservation asks for more
// units than the inventory row currently has available.
var ErrInsufficientStock = errors.New("insufficient stock")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// GetProductIDByDetail resolves a product_detail id to its product id
func (s *Store) GetProductIDByDetail(ctx context.Context, detailID int64) (int64, error) {
	var productID int64
	err := s.db.GetContext(ctx, &productID,
		"SELECT product_id FROM product_details WHERE id = $1", detailID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("product detail not found: %d", detailID)
	}
	return productID, err
}

// GetDiscountByID retrieves a discount by ID
func (s *Store) GetDiscountByID(ctx context.Context, id int64) (*models.Discount, error) {
	var discount models.Discount
	err := s.db.GetContext(ctx, &discount, "SELECT * FROM discounts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("discount not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// GetInventory retrieves inventory for a product
func (s *Store) GetInventory(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory not found for product: %d", productID)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ReserveStockTx reserves stock within a transaction (FOR UPDATE lock)
func (s *Store) ReserveStockTx(ctx context.Context, productID int64, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var available int
	err = tx.GetContext(ctx, &available,
		"SELECT available FROM inventory WHERE product_id = $1 FOR UPDATE", productID)
	if err != nil {
		return fmt.Errorf("failed to lock inventory: %w", err)
	}

	if available < quantity {
		return fmt.Errorf("%w: available=%d, requested=%d", ErrInsufficientStock, available, quantity)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE inventory SET available = available - $1, reserved = reserved + $1, updated_at = NOW() WHERE product_id = $2",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	return tx.Commit()
}

// ReleaseStock releases reserved stock (compensation)
func (s *Store) ReleaseStock(ctx context.Context, productID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE inventory SET available = available + $1, reserved = reserved - $1, updated_at = NOW() WHERE product_id = $2",
		quantity, productID)
	return err
}

// CommitStock commits reserved stock (final deduction)
func (s *Store) CommitStock(ctx context.Context, productID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE inventory SET reserved = reserved - $1, updated_at = NOW() WHERE product_id = $2",
		quantity, productID)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
